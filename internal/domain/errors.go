package domain

import "errors"

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternalError     = errors.New("internal error")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrPageNotFound      = errors.New("page not found")
	ErrInviteNotFound    = errors.New("invite not found")
	ErrAddressNotFound   = errors.New("public address not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
)

// Structural errors raised by the hierarchy engine
var (
	ErrRootPageImmovable      = errors.New("root pages cannot be moved or deleted")
	ErrParentOutsideWorkspace = errors.New("parent outside of workspace")
	ErrSameWorkspace          = errors.New("page is already in the target workspace")
	ErrWorkspaceIncomplete    = errors.New("workspace is missing its root pages")
	ErrDomainBoundPage        = errors.New("unbind the domain before nesting this page")
	ErrCyclicMove             = errors.New("cannot move a page under its own descendant")
	ErrSelfInvite             = errors.New("cannot accept an invite to an owned resource")
)

// Conflict errors; callers should retry the whole operation on collision
var (
	ErrShortIDCollision = errors.New("short id collision")
	ErrAddressTaken     = errors.New("public address already in use")
	ErrPageAlreadyBound = errors.New("page already has a public address")
	ErrCustomLinkTaken  = errors.New("custom link already used in this subtree")
)

// Validation constants
const (
	MaxPageNameLength      = 255
	MaxWorkspaceNameLength = 255
	MaxCustomLinkLength    = 120
)
