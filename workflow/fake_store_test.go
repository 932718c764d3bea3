package workflow

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/quill/models"
)

// fakeStore is an in-memory Store used to exercise the service without a
// database. It enforces the same uniqueness and conditional-update semantics
// the SQL store gets from its indexes.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	posts map[string]*models.Post
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]*models.User{},
		posts: map[string]*models.Post{},
	}
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errf(KindNotFound, "user not found")
}

func (f *fakeStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errf(KindNotFound, "user not found")
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return errf(KindConflict, "email already registered")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) FindPostByID(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errf(KindNotFound, "post not found")
}

func (f *fakeStore) FindPostBySlug(_ context.Context, slug string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errf(KindNotFound, "post not found")
}

func (f *fakeStore) FindPosts(_ context.Context, scope Scope, filter ListFilter, pg Pagination) ([]models.Post, int64, error) {
	pg = pg.Normalize()
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.Post
	for _, p := range f.posts {
		if !scope.Allows(p) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(p.Title, filter.Search) &&
			!strings.Contains(p.Content, filter.Search) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.ByPublished {
			ti, tj := matched[i].PublishedAt, matched[j].PublishedAt
			if ti != nil && tj != nil {
				return ti.After(*tj)
			}
			return tj == nil
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := pg.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pg.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeStore) CreatePost(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.posts {
		if existing.Slug == p.Slug {
			return errf(KindConflict, "slug already in use")
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeStore) UpdatePost(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[p.ID]; !ok {
		return errf(KindNotFound, "post not found")
	}
	for _, existing := range f.posts {
		if existing.ID != p.ID && existing.Slug == p.Slug {
			return errf(KindConflict, "slug already in use")
		}
	}
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return errf(KindNotFound, "post not found")
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) TransitionPost(_ context.Context, id, expect string, change PostChange) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, errf(KindNotFound, "post not found")
	}
	if p.Status != expect {
		return nil, errf(KindInvalidTransition, "post is not %s", expect)
	}
	p.Status = change.Status
	p.ApprovedByID = change.ApprovedByID
	p.PublishedAt = change.PublishedAt
	p.UpdatedAt = change.UpdatedAt
	cp := *p
	return &cp, nil
}
