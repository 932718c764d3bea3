package workflow

import (
	"context"
	"time"

	"github.com/quillhq/quill/models"
)

// ListFilter carries caller-supplied listing filters. Zero values mean
// "no restriction"; everything composes with the role Scope by conjunction.
type ListFilter struct {
	Status   string
	AuthorID string
	Search   string // free-text over title and content
	// ByPublished orders results by publication time instead of creation
	// time; used by the public read surface.
	ByPublished bool
}

// Pagination is a 1-based page window.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps pagination to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 10
	}
	return p
}

// Offset returns the row offset for the window.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// Store is the persistence contract the workflow service depends on. Every
// method returns workflow-kinded errors: KindNotFound for lookup misses,
// KindConflict for unique-constraint violations, KindStorage otherwise.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	FindPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindPosts(ctx context.Context, scope Scope, f ListFilter, pg Pagination) ([]models.Post, int64, error)
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error

	// TransitionPost atomically applies changes to the post only if its
	// current status equals expect, and returns the updated row. Zero rows
	// updated yields KindInvalidTransition (or KindNotFound if the post is
	// gone), which closes the check-then-act race on concurrent moderation.
	TransitionPost(ctx context.Context, id, expect string, change PostChange) (*models.Post, error)
}

// PostChange is the field set applied by a status transition.
type PostChange struct {
	Status       string
	ApprovedByID *string    // nil clears the approver
	PublishedAt  *time.Time // nil leaves/clears publication time
	UpdatedAt    time.Time
}
