package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite 收藏模型 - 用户收藏的地点，记录存在即为已收藏
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_place" json:"user_id"`
	PlaceID   string    `gorm:"size:100;not null;uniqueIndex:idx_user_place" json:"place_id"`
	CitySlug  string    `gorm:"size:100;not null;uniqueIndex:idx_user_place" json:"city_slug"`
	CreatedAt time.Time `json:"created_at"`
}
