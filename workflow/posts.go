package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/quillhq/quill/models"
)

// PostInput carries the fields an author supplies when creating a post.
type PostInput struct {
	Title      string
	Content    string
	Excerpt    string
	CoverImage string
}

// PostUpdate carries the optional fields of an edit; nil means unchanged.
type PostUpdate struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CoverImage *string
}

// CreatePost submits a new post for review: it is created in PENDING and
// awaits moderation.
func (s *Service) CreatePost(ctx context.Context, caller *Caller, in PostInput) (*models.Post, error) {
	return s.createWithStatus(ctx, caller, in, models.StatusPending)
}

// SaveDraft creates a post in DRAFT without submitting it for review.
func (s *Service) SaveDraft(ctx context.Context, caller *Caller, in PostInput) (*models.Post, error) {
	return s.createWithStatus(ctx, caller, in, models.StatusDraft)
}

func (s *Service) createWithStatus(ctx context.Context, caller *Caller, in PostInput, status string) (*models.Post, error) {
	if !CanCreate(caller) {
		return nil, errf(KindForbidden, "only publishers and admins can create posts")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, errf(KindValidation, "title and content are required")
	}
	if err := validateCoverImage(in.CoverImage); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      title,
		Content:    in.Content,
		Excerpt:    strings.TrimSpace(in.Excerpt),
		CoverImage: strings.TrimSpace(in.CoverImage),
		Status:     status,
		AuthorID:   caller.ID,
	}

	slug, err := s.availableSlug(ctx, GenerateSlug(title), "")
	if err != nil {
		return nil, err
	}
	post.Slug = slug

	if err := s.store.CreatePost(ctx, post); err != nil {
		if KindOf(err) != KindConflict {
			return nil, err
		}
		// Lost the pre-check race against a concurrent insert; the unique
		// index is authoritative, retry once with a fresh suffix.
		post.Slug = suffixSlug(GenerateSlug(title), s.now().UnixMilli())
		if err := s.store.CreatePost(ctx, post); err != nil {
			return nil, err
		}
	}
	return s.store.FindPostByID(ctx, post.ID)
}

// UpdatePost edits a post. Admins may edit anything; authors only their own
// posts while in DRAFT or REJECTED. A title change regenerates the slug.
func (s *Service) UpdatePost(ctx context.Context, caller *Caller, id string, in PostUpdate) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(caller, post) {
		if caller != nil && caller.ID == post.AuthorID {
			return nil, errf(KindForbidden, "only draft or rejected posts can be edited")
		}
		return nil, errf(KindForbidden, "you can only edit your own posts")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errf(KindValidation, "title cannot be empty")
		}
		if title != post.Title {
			slug, err := s.availableSlug(ctx, GenerateSlug(title), post.ID)
			if err != nil {
				return nil, err
			}
			post.Slug = slug
		}
		post.Title = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, errf(KindValidation, "content cannot be empty")
		}
		post.Content = *in.Content
	}
	if in.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	if in.CoverImage != nil {
		cover := strings.TrimSpace(*in.CoverImage)
		if err := validateCoverImage(cover); err != nil {
			return nil, err
		}
		post.CoverImage = cover
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.store.FindPostByID(ctx, post.ID)
}

// SubmitPost moves an author's DRAFT or REJECTED post back to PENDING for a
// fresh review. The approver reference is cleared on resubmission.
func (s *Service) SubmitPost(ctx context.Context, caller *Caller, id string) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller == nil || caller.ID != post.AuthorID {
		return nil, errf(KindForbidden, "only the author can submit a post for review")
	}
	if post.Status != models.StatusDraft && post.Status != models.StatusRejected {
		return nil, errf(KindInvalidTransition, "only draft or rejected posts can be submitted")
	}
	return s.store.TransitionPost(ctx, id, post.Status, PostChange{
		Status:    models.StatusPending,
		UpdatedAt: s.now(),
	})
}

// ApprovePost publishes a PENDING post, recording the moderator and the
// publication time. Approving anything else fails with InvalidTransition,
// including a second approve on an already published post.
func (s *Service) ApprovePost(ctx context.Context, caller *Caller, id string) (*models.Post, error) {
	if !CanModerate(caller) {
		return nil, errf(KindForbidden, "only admins can approve posts")
	}
	now := s.now()
	return s.store.TransitionPost(ctx, id, models.StatusPending, PostChange{
		Status:       models.StatusPublished,
		ApprovedByID: &caller.ID,
		PublishedAt:  &now,
		UpdatedAt:    now,
	})
}

// RejectPost declines a PENDING post, recording the moderator.
func (s *Service) RejectPost(ctx context.Context, caller *Caller, id string) (*models.Post, error) {
	if !CanModerate(caller) {
		return nil, errf(KindForbidden, "only admins can reject posts")
	}
	return s.store.TransitionPost(ctx, id, models.StatusPending, PostChange{
		Status:       models.StatusRejected,
		ApprovedByID: &caller.ID,
		UpdatedAt:    s.now(),
	})
}

// DeletePost removes a post; allowed for its author and for admins in any
// status.
func (s *Service) DeletePost(ctx context.Context, caller *Caller, id string) error {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(caller, post) {
		return errf(KindForbidden, "you can only delete your own posts")
	}
	return s.store.DeletePost(ctx, id)
}

// GetPost loads a post by id, enforcing the view policy.
func (s *Service) GetPost(ctx context.Context, caller *Caller, id string) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return authorizeView(caller, post)
}

// GetPostBySlug loads a post by slug, enforcing the view policy.
func (s *Service) GetPostBySlug(ctx context.Context, caller *Caller, slug string) (*models.Post, error) {
	post, err := s.store.FindPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return authorizeView(caller, post)
}

func authorizeView(caller *Caller, post *models.Post) (*models.Post, error) {
	if !CanView(caller, post) {
		return nil, errf(KindForbidden, "you are not allowed to view this post")
	}
	return post, nil
}

// ListPosts returns posts visible to the caller, narrowed by the supplied
// filters, newest first.
func (s *Service) ListPosts(ctx context.Context, caller *Caller, f ListFilter, pg Pagination) ([]models.Post, int64, error) {
	f.ByPublished = false
	return s.store.FindPosts(ctx, ListScope(caller), f, pg)
}

// ListPublished is the public listing: published posts only, optional
// free-text search, ordered by publication time. Supplied status or author
// filters cannot widen this.
func (s *Service) ListPublished(ctx context.Context, search string, pg Pagination) ([]models.Post, int64, error) {
	scope := Scope{Status: models.StatusPublished}
	return s.store.FindPosts(ctx, scope, ListFilter{Search: search, ByPublished: true}, pg)
}

// GetPublishedBySlug is the public detail lookup; non-published posts are
// indistinguishable from missing ones.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.store.FindPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.Status != models.StatusPublished {
		return nil, errf(KindNotFound, "post not found")
	}
	return post, nil
}

// RecentPublished returns the latest published posts for sidebars and feeds.
func (s *Service) RecentPublished(ctx context.Context, limit int) ([]models.Post, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}
	scope := Scope{Status: models.StatusPublished}
	posts, _, err := s.store.FindPosts(ctx, scope, ListFilter{ByPublished: true}, Pagination{Page: 1, PageSize: limit})
	return posts, err
}

// availableSlug resolves a generated slug against existing posts, appending a
// millisecond timestamp on collision. selfID excludes the post being edited
// from the collision check.
func (s *Service) availableSlug(ctx context.Context, base, selfID string) (string, error) {
	if base == "" {
		return suffixSlug(base, s.now().UnixMilli()), nil
	}
	existing, err := s.store.FindPostBySlug(ctx, base)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return base, nil
		}
		return "", err
	}
	if existing.ID == selfID {
		return base, nil
	}
	return suffixSlug(base, s.now().UnixMilli()), nil
}

func suffixSlug(base string, ms int64) string {
	if base == "" {
		return fmt.Sprintf("%d", ms)
	}
	return fmt.Sprintf("%s-%d", base, ms)
}

func validateCoverImage(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errf(KindValidation, "cover image must be a valid http(s) URL")
	}
	return nil
}
