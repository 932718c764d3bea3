package workflow

import "github.com/quillhq/quill/models"

// Scope is the role-derived restriction applied to listing queries before any
// caller-supplied filters. Filters compose with the scope by conjunction, so
// a requested status or author can narrow the scope but never widen it.
type Scope struct {
	All      bool   // no restriction (moderators)
	AuthorID string // restrict to this author's posts, any status
	Status   string // restrict to this status, any author
}

// ListScope builds the visibility scope for a caller:
// admins see everything, publishers see exactly their own posts, and
// anonymous or otherwise unprivileged callers see published posts only.
func ListScope(c *Caller) Scope {
	if c != nil {
		if policyFor(c).viewAny {
			return Scope{All: true}
		}
		return Scope{AuthorID: c.ID}
	}
	return Scope{Status: models.StatusPublished}
}

// Allows reports whether a single post falls inside the scope. The SQL store
// translates the scope into WHERE clauses; this form exists for in-memory
// evaluation.
func (s Scope) Allows(p *models.Post) bool {
	if s.All {
		return true
	}
	if s.AuthorID != "" && p.AuthorID != s.AuthorID {
		return false
	}
	if s.Status != "" && p.Status != s.Status {
		return false
	}
	return true
}
