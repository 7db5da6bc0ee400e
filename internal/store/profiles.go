package store

import (
	"context"
	"errors"
	"fmt"

	"citybasic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Take(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile inserts the profile on first save and overwrites the editable fields afterwards.
func (s *Store) SaveProfile(ctx context.Context, profile *models.Profile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "bio", "country_code", "avatar_url", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
