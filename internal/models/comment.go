package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentLength 评论正文的最大字符数
const MaxCommentLength = 2000

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CitySlug  string     `gorm:"size:100;not null;index:idx_comment_thread" json:"city_slug"`
	PlaceSlug *string    `gorm:"size:100;index:idx_comment_thread" json:"place_slug"` // Nullable for city-level comments
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`                    // Nullable for top-level comments
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	VoteCount int        `gorm:"not null;default:0" json:"vote_count"` // cached sum of votes.value
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	Author *Profile `gorm:"-" json:"author,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SameThread reports whether the comment lives in the given city/place thread.
func (c *Comment) SameThread(citySlug string, placeSlug *string) bool {
	if c.CitySlug != citySlug {
		return false
	}
	if c.PlaceSlug == nil || placeSlug == nil {
		return c.PlaceSlug == nil && placeSlug == nil
	}
	return *c.PlaceSlug == *placeSlug
}
