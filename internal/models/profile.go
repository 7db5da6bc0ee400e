package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile 用户公开资料，ID 与 User.ID 相同，首次保存时创建
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"size:50" json:"display_name"`
	Bio         string    `gorm:"size:500" json:"bio"`
	CountryCode string    `gorm:"size:2" json:"country_code"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
