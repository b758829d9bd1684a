package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RootKind distinguishes a workspace's two root pages from regular pages.
// Privacy is never stored on pages directly: a page is private iff its root
// ancestor is the workspace's private root.
type RootKind string

const (
	RootKindNone    RootKind = ""
	RootKindPrivate RootKind = "private"
	RootKindPublic  RootKind = "public"
)

// MpathDelimiter separates ancestor ids inside a materialized path.
const MpathDelimiter = "."

// MaxHistoryDepth caps the number of content snapshots kept per page.
const MaxHistoryDepth = 50

// ContentRevision is one entry of a page's edit history.
type ContentRevision struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// Page is a node of the workspace tree. Mpath is the materialized path of
// ancestor ids, trailing-delimited ("a1.a2." for a page whose grandparent is
// a1); root pages have an empty mpath. ChildrenOrder is the only source of
// sibling ordering and must list exactly the ids of the pages whose ParentID
// is this page.
type Page struct {
	ID                     uuid.UUID         `json:"id"`
	WorkspaceID            uuid.UUID         `json:"workspaceId"`
	ParentID               *uuid.UUID        `json:"parentId"`
	Mpath                  string            `json:"mpath"`
	ChildrenOrder          []uuid.UUID       `json:"childrenOrder"`
	Name                   string            `json:"name"`
	ShortID                string            `json:"shortId"`
	CustomLink             *string           `json:"customLink"`
	Content                string            `json:"content"`
	StylesScss             *string           `json:"stylesScss"`
	ThemeID                *string           `json:"themeId"`
	RootKind               RootKind          `json:"rootKind,omitempty"`
	CollaborationInviteIDs []string          `json:"collaborationInviteIds"`
	History                []ContentRevision `json:"history,omitempty"`
	HeadTags               *string           `json:"headTags"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}

// IsRoot reports whether the page is one of its workspace's root pages.
func (p *Page) IsRoot() bool {
	return p.ParentID == nil
}

// ChildMpath is the mpath carried by direct children of this page.
func (p *Page) ChildMpath() string {
	return p.Mpath + p.ID.String() + MpathDelimiter
}

// AncestorIDs returns the ids on the mpath, root ancestor first.
// The result is empty for root pages.
func (p *Page) AncestorIDs() []uuid.UUID {
	if p.Mpath == "" {
		return nil
	}
	segments := strings.Split(strings.TrimSuffix(p.Mpath, MpathDelimiter), MpathDelimiter)
	ids := make([]uuid.UUID, 0, len(segments))
	for _, s := range segments {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// RootAncestorID returns the id of the page's root ancestor; for a root page
// that is the page itself.
func (p *Page) RootAncestorID() uuid.UUID {
	if p.Mpath == "" {
		return p.ID
	}
	first := p.Mpath[:strings.Index(p.Mpath, MpathDelimiter)]
	id, err := uuid.Parse(first)
	if err != nil {
		return p.ID
	}
	return id
}

// HasAncestor reports whether id appears on the page's mpath.
func (p *Page) HasAncestor(id uuid.UUID) bool {
	return strings.Contains(p.Mpath, id.String()+MpathDelimiter)
}

// HasInvite reports whether the given invite id is live on this page.
func (p *Page) HasInvite(inviteID string) bool {
	for _, id := range p.CollaborationInviteIDs {
		if id == inviteID {
			return true
		}
	}
	return false
}

// ChildIndex returns the position of childID in ChildrenOrder, or -1.
func (p *Page) ChildIndex(childID uuid.UUID) int {
	for i, id := range p.ChildrenOrder {
		if id == childID {
			return i
		}
	}
	return -1
}

// RemoveChild deletes childID from ChildrenOrder if present.
func (p *Page) RemoveChild(childID uuid.UUID) {
	for i, id := range p.ChildrenOrder {
		if id == childID {
			p.ChildrenOrder = append(p.ChildrenOrder[:i], p.ChildrenOrder[i+1:]...)
			return
		}
	}
}

// InsertChildAt places childID at the given position, clamping position to
// the valid range. The child must not already be in ChildrenOrder.
func (p *Page) InsertChildAt(childID uuid.UUID, position int) {
	if position < 0 {
		position = 0
	}
	if position > len(p.ChildrenOrder) {
		position = len(p.ChildrenOrder)
	}
	p.ChildrenOrder = append(p.ChildrenOrder, uuid.Nil)
	copy(p.ChildrenOrder[position+1:], p.ChildrenOrder[position:])
	p.ChildrenOrder[position] = childID
}

// AppendHistory records a content snapshot, evicting the oldest entries
// beyond MaxHistoryDepth.
func (p *Page) AppendHistory(content string, at time.Time) {
	p.History = append(p.History, ContentRevision{Timestamp: at, Content: content})
	if len(p.History) > MaxHistoryDepth {
		p.History = p.History[len(p.History)-MaxHistoryDepth:]
	}
}

// PageRepository defines the interface for page persistence operations.
// Compound methods are atomic: they either fully apply or leave the tree
// untouched, which is what keeps the mpath and childrenOrder invariants safe
// under concurrent readers.
type PageRepository interface {
	GetByID(id uuid.UUID) (*Page, error)
	GetByShortID(shortID string) (*Page, error)
	GetByIDs(ids []uuid.UUID) ([]*Page, error)
	GetByWorkspace(workspaceID uuid.UUID) ([]*Page, error)
	GetByInviteID(inviteID string) (*Page, error)
	// GetDescendants returns every strict descendant of the page, i.e. all
	// pages whose mpath contains its id.
	GetDescendants(id uuid.UUID) ([]*Page, error)
	// GetByCustomLink returns the pages under the given root ancestor that
	// carry the custom link. Several branches may reuse the same leaf link.
	GetByCustomLink(rootAncestorID uuid.UUID, link string) ([]*Page, error)
	// Create inserts a page with no parent bookkeeping; used for root pages.
	Create(page *Page) (*Page, error)
	// CreateWithParent inserts the page and persists the parent's updated
	// childrenOrder in one transaction.
	CreateWithParent(page *Page, parent *Page) (*Page, error)
	Update(page *Page) (*Page, error)
	// SaveAll persists the batch in one transaction; structural moves hand
	// the moved page, its rewritten descendants and both parents here.
	SaveAll(pages []*Page) error
	// DeleteSubtree removes the page and all descendants together with their
	// collaboration grants and any bound public address, in that order, and
	// persists the parent's updated childrenOrder, all in one transaction.
	DeleteSubtree(page *Page, parent *Page) error
	// DeleteAllInWorkspace bulk-deletes collaboration grants, public
	// addresses and pages for the workspace.
	DeleteAllInWorkspace(workspaceID uuid.UUID) error
}
