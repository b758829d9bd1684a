package domain

import "github.com/google/uuid"

// Role is a user's privilege with respect to a specific page, resolved in
// strictly descending order: owner beats workspace collaborator beats page
// collaborator; guest means none of the above.
type Role string

const (
	RoleOwner                 Role = "owner"
	RoleWorkspaceCollaborator Role = "workspaceCollaborator"
	RolePageCollaborator      Role = "pageCollaborator"
	RoleGuest                 Role = "guest"
)

// Action names a page operation subject to authorization.
type Action string

const (
	ActionReadPage            Action = "readPage"
	ActionCreatePage          Action = "createPage"
	ActionDeletePage          Action = "deletePage"
	ActionMovePage            Action = "movePage"
	ActionMovePageToWorkspace Action = "movePageToWorkspace"
	ActionSetTitle            Action = "setTitle"
	ActionSetContent          Action = "setContent"
	ActionSetStyles           Action = "setStyles"
	ActionSetCustomLink       Action = "setCustomLink"
	ActionSetHeadTags         Action = "setHeadTags"
	ActionBindAddress         Action = "bindAddress"
	ActionUnbindAddress       Action = "unbindAddress"
	ActionInvite              Action = "invite"
	ActionRevokeInvite        Action = "revokeInvite"
)

var (
	ownerOnly = []Role{RoleOwner}
	managers  = []Role{RoleOwner, RoleWorkspaceCollaborator}
	editors   = []Role{RoleOwner, RoleWorkspaceCollaborator, RolePageCollaborator}
)

// actionRoles maps each action to the roles allowed to perform it.
// Guests are denied everything.
var actionRoles = map[Action][]Role{
	ActionReadPage:            editors,
	ActionCreatePage:          managers,
	ActionDeletePage:          managers,
	ActionMovePage:            managers,
	ActionMovePageToWorkspace: ownerOnly,
	ActionSetTitle:            editors,
	ActionSetContent:          editors,
	ActionSetStyles:           editors,
	ActionSetCustomLink:       editors,
	ActionSetHeadTags:         editors,
	ActionBindAddress:         managers,
	ActionUnbindAddress:       managers,
	ActionInvite:              managers,
	ActionRevokeInvite:        managers,
}

// CanPerform reports whether the role may perform the action.
func CanPerform(role Role, action Action) bool {
	for _, allowed := range actionRoles[action] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Entitlements is the narrow capability interface consumed from the billing
// subsystem. Handlers consult it before gated operations; the hierarchy
// engine itself is tier-agnostic.
type Entitlements interface {
	CanHavePrivatePage(ownerUserID uuid.UUID) bool
	CanInviteToCollabPage(ownerUserID uuid.UUID) bool
}
