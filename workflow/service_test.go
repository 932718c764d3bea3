package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/models"
)

type stubTokens struct{}

func (stubTokens) Issue(u *models.User) (string, error) { return "token-" + u.ID, nil }

type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (stubHasher) Verify(hash, plain string) bool    { return hash == "hashed:"+plain }

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	svc := NewService(store, stubTokens{}, stubHasher{})
	return svc, store
}

func seedUser(t *testing.T, store *fakeStore, email, role string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "hashed:secret1", Name: email, Role: role}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func callerFor(u *models.User) *Caller {
	return &Caller{ID: u.ID, Role: Role(u.Role)}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	user, token, err := svc.Register(ctx, RegisterInput{
		Email:    "Ana@Example.com",
		Password: "secret1",
		Name:     "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "PUBLISHER", user.Role)
	assert.Equal(t, "hashed:secret1", user.PasswordHash)
	assert.Equal(t, "token-"+user.ID, token)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name string
		in   RegisterInput
		kind Kind
	}{
		{"missing email", RegisterInput{Password: "secret1", Name: "x"}, KindValidation},
		{"missing name", RegisterInput{Email: "a@b.c", Password: "secret1"}, KindValidation},
		{"short password", RegisterInput{Email: "a@b.c", Password: "12345", Name: "x"}, KindValidation},
		{"malformed email", RegisterInput{Email: "nope", Password: "secret1", Name: "x"}, KindValidation},
		{"unknown role", RegisterInput{Email: "a@b.c", Password: "secret1", Name: "x", Role: "EDITOR"}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	seedUser(t, store, "ana@example.com", "PUBLISHER")

	_, _, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "secret1", Name: "Ana"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	u := seedUser(t, store, "ana@example.com", "PUBLISHER")

	got, token, err := svc.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.Equal(t, KindUnauthenticated, KindOf(err))

	// Unknown email is indistinguishable from a bad password.
	_, _, err = svc.Login(ctx, "ghost@example.com", "secret1")
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestCreatePostStartsPending(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Hello World", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, post.Status)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Nil(t, post.ApprovedByID)
	assert.Nil(t, post.PublishedAt)
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	caller := callerFor(author)

	_, err := svc.CreatePost(ctx, caller, PostInput{Title: "  ", Content: "body"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreatePost(ctx, caller, PostInput{Title: "t", Content: ""})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreatePost(ctx, caller, PostInput{Title: "t", Content: "c", CoverImage: "ftp://x/y.png"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreatePost(ctx, nil, PostInput{Title: "t", Content: "c"})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestApproveLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Hello World", Content: "body"})
	require.NoError(t, err)

	published, err := svc.ApprovePost(ctx, callerFor(admin), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.ApprovedByID)
	assert.Equal(t, admin.ID, *published.ApprovedByID)

	// A second approve must fail instead of silently succeeding.
	_, err = svc.ApprovePost(ctx, callerFor(admin), post.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestRejectLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Rejected Piece", Content: "body"})
	require.NoError(t, err)

	rejected, err := svc.RejectPost(ctx, callerFor(admin), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.ApprovedByID)
	assert.Equal(t, admin.ID, *rejected.ApprovedByID)
	assert.Nil(t, rejected.PublishedAt)

	_, err = svc.RejectPost(ctx, callerFor(admin), post.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err))

	// Publishers cannot moderate.
	_, err = svc.ApprovePost(ctx, callerFor(author), post.ID)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestDraftSubmitCycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")
	other := seedUser(t, store, "b@example.com", "PUBLISHER")

	draft, err := svc.SaveDraft(ctx, callerFor(author), PostInput{Title: "Work in Progress", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	// Only the author may submit.
	_, err = svc.SubmitPost(ctx, callerFor(other), draft.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	pending, err := svc.SubmitPost(ctx, callerFor(author), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, pending.Status)
	assert.Nil(t, pending.ApprovedByID)

	// Rejected posts may be resubmitted, and the approver is cleared again.
	rejected, err := svc.RejectPost(ctx, callerFor(admin), pending.ID)
	require.NoError(t, err)
	require.NotNil(t, rejected.ApprovedByID)

	resubmitted, err := svc.SubmitPost(ctx, callerFor(author), rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, resubmitted.Status)
	assert.Nil(t, resubmitted.ApprovedByID)
	assert.Nil(t, resubmitted.PublishedAt)

	// A pending post cannot be submitted again.
	_, err = svc.SubmitPost(ctx, callerFor(author), resubmitted.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestUpdatePostPermissions(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	other := seedUser(t, store, "b@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	draft, err := svc.SaveDraft(ctx, callerFor(author), PostInput{Title: "Original", Content: "body"})
	require.NoError(t, err)

	newTitle := "Fresh Title"
	updated, err := svc.UpdatePost(ctx, callerFor(author), draft.ID, PostUpdate{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Title", updated.Title)
	assert.Equal(t, "fresh-title", updated.Slug)

	_, err = svc.UpdatePost(ctx, callerFor(other), draft.ID, PostUpdate{Title: &newTitle})
	assert.Equal(t, KindForbidden, KindOf(err))

	// Once pending, the author is locked out but an admin is not.
	pending, err := svc.SubmitPost(ctx, callerFor(author), draft.ID)
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, callerFor(author), pending.ID, PostUpdate{Title: &newTitle})
	assert.Equal(t, KindForbidden, KindOf(err))

	adminTitle := "Admin Override"
	updated, err = svc.UpdatePost(ctx, callerFor(admin), pending.ID, PostUpdate{Title: &adminTitle})
	require.NoError(t, err)
	assert.Equal(t, "Admin Override", updated.Title)
}

func TestUpdatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")

	draft, err := svc.SaveDraft(ctx, callerFor(author), PostInput{Title: "Original", Content: "body"})
	require.NoError(t, err)

	empty := "   "
	_, err = svc.UpdatePost(ctx, callerFor(author), draft.ID, PostUpdate{Title: &empty})
	assert.Equal(t, KindValidation, KindOf(err))

	badCover := "not a url"
	_, err = svc.UpdatePost(ctx, callerFor(author), draft.ID, PostUpdate{CoverImage: &badCover})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestGetPostVisibility(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	other := seedUser(t, store, "b@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Private For Now", Content: "body"})
	require.NoError(t, err)

	// Another publisher cannot see a pending post; the author and admin can.
	_, err = svc.GetPost(ctx, callerFor(other), post.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.GetPost(ctx, callerFor(author), post.ID)
	assert.NoError(t, err)

	_, err = svc.GetPost(ctx, callerFor(admin), post.ID)
	assert.NoError(t, err)

	_, err = svc.GetPost(ctx, nil, post.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.GetPost(ctx, callerFor(admin), "missing-id")
	assert.Equal(t, KindNotFound, KindOf(err))

	// Once published, anonymous lookup by slug succeeds.
	_, err = svc.ApprovePost(ctx, callerFor(admin), post.ID)
	require.NoError(t, err)
	got, err := svc.GetPostBySlug(ctx, nil, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestListPostsVisibility(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	authorA := seedUser(t, store, "a@example.com", "PUBLISHER")
	authorB := seedUser(t, store, "b@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	pa, err := svc.CreatePost(ctx, callerFor(authorA), PostInput{Title: "From A", Content: "body"})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, callerFor(authorB), PostInput{Title: "From B", Content: "body"})
	require.NoError(t, err)
	_, err = svc.ApprovePost(ctx, callerFor(admin), pa.ID)
	require.NoError(t, err)

	// Admin sees all posts regardless of status or author.
	items, total, err := svc.ListPosts(ctx, callerFor(admin), ListFilter{}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	// Publisher sees exactly their own posts, all statuses.
	items, total, err = svc.ListPosts(ctx, callerFor(authorB), ListFilter{}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, authorB.ID, items[0].AuthorID)

	// Anonymous callers get published posts only, even when a status filter
	// explicitly requests pending ones.
	items, total, err = svc.ListPosts(ctx, nil, ListFilter{Status: models.StatusPending}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, items)

	items, _, err = svc.ListPosts(ctx, nil, ListFilter{}, Pagination{})
	require.NoError(t, err)
	for _, p := range items {
		assert.Equal(t, models.StatusPublished, p.Status)
	}
}

func TestDuplicateTitlesGetDistinctSlugs(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	caller := callerFor(author)

	first, err := svc.CreatePost(ctx, caller, PostInput{Title: "Hello World", Content: "one"})
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, caller, PostInput{Title: "Hello World", Content: "two"})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, len(second.Slug) > len("hello-world"))

	gotFirst, err := svc.GetPostBySlug(ctx, caller, first.Slug)
	require.NoError(t, err)
	assert.Equal(t, first.ID, gotFirst.ID)
	gotSecond, err := svc.GetPostBySlug(ctx, caller, second.Slug)
	require.NoError(t, err)
	assert.Equal(t, second.ID, gotSecond.ID)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	other := seedUser(t, store, "b@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Doomed", Content: "body"})
	require.NoError(t, err)

	err = svc.DeletePost(ctx, callerFor(other), post.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, svc.DeletePost(ctx, callerFor(author), post.ID))

	err = svc.DeletePost(ctx, callerFor(author), post.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	// Admins may delete posts they do not own, in any status.
	p2, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Also Doomed", Content: "body"})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePost(ctx, callerFor(admin), p2.ID))
}

func TestPublishedInvariants(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	post, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Invariant Check", Content: "body"})
	require.NoError(t, err)
	assertInvariants(t, post)

	published, err := svc.ApprovePost(ctx, callerFor(admin), post.ID)
	require.NoError(t, err)
	assertInvariants(t, published)

	draft, err := svc.SaveDraft(ctx, callerFor(author), PostInput{Title: "Second Check", Content: "body"})
	require.NoError(t, err)
	assertInvariants(t, draft)

	pending, err := svc.SubmitPost(ctx, callerFor(author), draft.ID)
	require.NoError(t, err)
	assertInvariants(t, pending)

	rejected, err := svc.RejectPost(ctx, callerFor(admin), pending.ID)
	require.NoError(t, err)
	assertInvariants(t, rejected)
}

// assertInvariants checks publishedAt is set iff PUBLISHED and approvedBy is
// set iff PUBLISHED or REJECTED.
func assertInvariants(t *testing.T, p *models.Post) {
	t.Helper()
	if p.Status == models.StatusPublished {
		assert.NotNil(t, p.PublishedAt)
	} else {
		assert.Nil(t, p.PublishedAt)
	}
	if p.Status == models.StatusPublished || p.Status == models.StatusRejected {
		assert.NotNil(t, p.ApprovedByID)
	} else {
		assert.Nil(t, p.ApprovedByID)
	}
}

func TestPublicSurface(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	author := seedUser(t, store, "a@example.com", "PUBLISHER")
	admin := seedUser(t, store, "admin@example.com", "ADMIN")

	p1, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Cooking Rice", Content: "steam it"})
	require.NoError(t, err)
	p2, err := svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Cooking Beans", Content: "soak them"})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, callerFor(author), PostInput{Title: "Unpublished Cooking", Content: "hidden"})
	require.NoError(t, err)

	_, err = svc.ApprovePost(ctx, callerFor(admin), p1.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond) // distinct publication instants
	_, err = svc.ApprovePost(ctx, callerFor(admin), p2.ID)
	require.NoError(t, err)

	// Search covers title and content, published posts only.
	items, total, err := svc.ListPublished(ctx, "Cooking", Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)
	// Newest publication first.
	assert.Equal(t, p2.ID, items[0].ID)

	recent, err := svc.RecentPublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, p2.ID, recent[0].ID)

	// Pending posts are invisible by slug on the public surface.
	_, err = svc.GetPublishedBySlug(ctx, "unpublished-cooking")
	assert.Equal(t, KindNotFound, KindOf(err))

	got, err := svc.GetPublishedBySlug(ctx, p1.Slug)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)
}
