package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"citybasic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoogleIdentity is the subset of Google userinfo the service keeps.
type GoogleIdentity struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpsertGoogleUser 通过 GoogleID 或邮箱查找用户，不存在则自动注册，并确保存在默认资料
func (s *Store) UpsertGoogleUser(ctx context.Context, identity GoogleIdentity) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", identity.ID).Or("email = ?", identity.Email).Take(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:       identity.Email,
				GoogleID:    identity.ID,
				GoogleEmail: identity.Email,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find user: %w", err)
		case user.GoogleID == "":
			// 老用户，绑定 Google 账号
			user.GoogleID = identity.ID
			user.GoogleEmail = identity.Email
			if err := tx.Save(&user).Error; err != nil {
				return fmt.Errorf("bind google account: %w", err)
			}
		}

		name := identity.Name
		if name == "" {
			name = strings.Split(identity.Email, "@")[0]
		}
		if len([]rune(name)) > 50 {
			name = string([]rune(name)[:50])
		}
		profile := models.Profile{ID: user.ID, DisplayName: name, AvatarURL: identity.Picture}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
			return fmt.Errorf("create default profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
