package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post statuses. These are wire values stored in the database and returned to
// clients, so they must not be renamed.
const (
	StatusDraft     = "DRAFT"
	StatusPending   = "PENDING"
	StatusPublished = "PUBLISHED"
	StatusRejected  = "REJECTED"
)

// Post represents an article moving through the editorial workflow.
// ApprovedByID references the admin who moderated it and is set exactly when
// the post is PUBLISHED or REJECTED; PublishedAt is set exactly when PUBLISHED.
type Post struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Excerpt      string     `gorm:"size:512" json:"excerpt,omitempty"`
	CoverImage   string     `gorm:"size:512" json:"cover_image,omitempty"`
	Slug         string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Status       string     `gorm:"size:16;not null;index;default:'PENDING'" json:"status"`
	AuthorID     string     `gorm:"size:36;index;not null" json:"author_id"`
	ApprovedByID *string    `gorm:"size:36" json:"approved_by,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Author       User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Approver     *User      `gorm:"foreignKey:ApprovedByID" json:"approver,omitempty"`
}

// BeforeCreate assigns a UUID and fills timestamps.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (p *Post) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}
