package workflow

import "github.com/quillhq/quill/models"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RolePublisher Role = "PUBLISHER"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RolePublisher:
		return RolePublisher, true
	}
	return "", false
}

// Caller identifies the authenticated user behind a request. A nil *Caller
// means an anonymous visitor.
type Caller struct {
	ID   string
	Role Role
}

// rolePolicy is the per-role capability table. Author-scoped rights (editing
// own drafts, deleting own posts) are layered on top by the predicates below.
type rolePolicy struct {
	viewAny   bool // read posts in any status by any author
	editAny   bool // edit regardless of ownership or status
	deleteAny bool
	moderate  bool
	create    bool
}

var policies = map[Role]rolePolicy{
	RoleAdmin:     {viewAny: true, editAny: true, deleteAny: true, moderate: true, create: true},
	RolePublisher: {create: true},
}

func policyFor(c *Caller) rolePolicy {
	if c == nil {
		return rolePolicy{}
	}
	return policies[c.Role]
}

// authorEditable reports whether the owning author may still edit a post in
// the given status. Published and pending posts are frozen for authors.
func authorEditable(status string) bool {
	return status == models.StatusDraft || status == models.StatusRejected
}

// CanView reports whether the caller may read the post. Published posts are
// world-readable; otherwise only the author and moderators see them.
func CanView(c *Caller, p *models.Post) bool {
	if p.Status == models.StatusPublished {
		return true
	}
	if c == nil {
		return false
	}
	return policyFor(c).viewAny || c.ID == p.AuthorID
}

// CanEdit reports whether the caller may modify title/content of the post.
func CanEdit(c *Caller, p *models.Post) bool {
	if c == nil {
		return false
	}
	if policyFor(c).editAny {
		return true
	}
	return c.ID == p.AuthorID && authorEditable(p.Status)
}

// CanDelete reports whether the caller may remove the post, in any status.
func CanDelete(c *Caller, p *models.Post) bool {
	if c == nil {
		return false
	}
	return policyFor(c).deleteAny || c.ID == p.AuthorID
}

// CanCreate reports whether the caller may author new posts.
func CanCreate(c *Caller) bool {
	return policyFor(c).create
}

// CanModerate reports whether the caller may approve or reject submissions.
func CanModerate(c *Caller) bool {
	return policyFor(c).moderate
}
