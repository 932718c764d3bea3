package workflow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quillhq/quill/models"
)

// GormStore implements Store on a gorm handle. It requires the connection to
// be opened with TranslateError so unique-index violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm DB as a workflow Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "user not found")
		}
		return nil, wrap(KindStorage, err, "failed to load user")
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "user not found")
		}
		return nil, wrap(KindStorage, err, "failed to load user")
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errf(KindConflict, "email already registered")
		}
		return wrap(KindStorage, err, "failed to create user")
	}
	return nil
}

func (s *GormStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	return s.findPost(ctx, "id = ?", id)
}

func (s *GormStore) FindPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findPost(ctx, "slug = ?", slug)
}

func (s *GormStore) findPost(ctx context.Context, cond string, arg string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Preload("Approver").
		Where(cond, arg).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "post not found")
		}
		return nil, wrap(KindStorage, err, "failed to load post")
	}
	return &post, nil
}

func (s *GormStore) FindPosts(ctx context.Context, scope Scope, f ListFilter, pg Pagination) ([]models.Post, int64, error) {
	pg = pg.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Post{}).Preload("Author").Preload("Approver")
	if !scope.All {
		if scope.AuthorID != "" {
			query = query.Where("author_id = ?", scope.AuthorID)
		}
		if scope.Status != "" {
			query = query.Where("status = ?", scope.Status)
		}
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.AuthorID != "" {
		query = query.Where("author_id = ?", f.AuthorID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(KindStorage, err, "failed to count posts")
	}

	order := "created_at DESC"
	if f.ByPublished {
		order = "published_at DESC"
	}
	var posts []models.Post
	if err := query.Order(order).Offset(pg.Offset()).Limit(pg.PageSize).Find(&posts).Error; err != nil {
		return nil, 0, wrap(KindStorage, err, "failed to list posts")
	}
	return posts, total, nil
}

func (s *GormStore) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errf(KindConflict, "slug already in use")
		}
		return wrap(KindStorage, err, "failed to create post")
	}
	return nil
}

func (s *GormStore) UpdatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errf(KindConflict, "slug already in use")
		}
		return wrap(KindStorage, err, "failed to update post")
	}
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return wrap(KindStorage, res.Error, "failed to delete post")
	}
	if res.RowsAffected == 0 {
		return errf(KindNotFound, "post not found")
	}
	return nil
}

func (s *GormStore) TransitionPost(ctx context.Context, id, expect string, change PostChange) (*models.Post, error) {
	// Conditional update keyed on the expected status. Of two racing
	// moderation calls exactly one matches the WHERE clause.
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, expect).
		Updates(map[string]interface{}{
			"status":         change.Status,
			"approved_by_id": change.ApprovedByID,
			"published_at":   change.PublishedAt,
			"updated_at":     change.UpdatedAt,
		})
	if res.Error != nil {
		return nil, wrap(KindStorage, res.Error, "failed to update post status")
	}
	if res.RowsAffected == 0 {
		if _, err := s.FindPostByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, errf(KindInvalidTransition, "post is not %s", expect)
	}
	return s.FindPostByID(ctx, id)
}
