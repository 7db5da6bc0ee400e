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

// ToggleFavorite 切换收藏状态 - 已收藏则删除，未收藏则创建。返回切换后的状态，出错时为 false。
func (s *Store) ToggleFavorite(ctx context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error) {
	db := s.db.WithContext(ctx)

	var existing models.Favorite
	err := db.Where("user_id = ? AND place_id = ? AND city_slug = ?", userID, placeID, citySlug).Take(&existing).Error
	if err == nil {
		if err := db.Delete(&existing).Error; err != nil {
			return false, fmt.Errorf("remove favorite: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("check favorite: %w", err)
	}

	favorite := models.Favorite{UserID: userID, PlaceID: placeID, CitySlug: citySlug}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite).Error; err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return true, nil
}

// ListFavorites returns the user's saved places, newest first.
func (s *Store) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// IsFavorite 检查用户是否已收藏某地点
func (s *Store) IsFavorite(ctx context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND place_id = ? AND city_slug = ?", userID, placeID, citySlug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}
