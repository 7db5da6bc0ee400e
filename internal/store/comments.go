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

// CreateComment inserts a comment and fills in its author profile so the caller
// can render it without a second round trip.
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	db := s.db.WithContext(ctx)

	if comment.ParentID != nil {
		var parent models.Comment
		if err := db.Select("id", "city_slug", "place_slug").Take(&parent, "id = ?", *comment.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParentNotFound
			}
			return fmt.Errorf("load parent comment: %w", err)
		}
		if !parent.SameThread(comment.CitySlug, comment.PlaceSlug) {
			return ErrInvalidParent
		}
	}

	comment.VoteCount = 0
	if err := db.Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	return s.attachAuthors(ctx, []*models.Comment{comment})
}

// GetComment returns a single comment with its author attached.
func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Take(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if err := s.attachAuthors(ctx, []*models.Comment{&comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns every comment of a city thread (placeSlug nil) or a place
// thread, oldest first, with authors attached.
func (s *Store) ListComments(ctx context.Context, citySlug string, placeSlug *string) ([]models.Comment, error) {
	query := s.db.WithContext(ctx).Where("city_slug = ?", citySlug)
	if placeSlug == nil {
		query = query.Where("place_slug IS NULL")
	} else {
		query = query.Where("place_slug = ?", *placeSlug)
	}

	var comments []models.Comment
	if err := query.Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	ptrs := make([]*models.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}
	if err := s.attachAuthors(ctx, ptrs); err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment removes a comment together with its replies and their votes and reports.
func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uuid.UUID{id}
		frontier := []uuid.UUID{id}
		for len(frontier) > 0 {
			var children []uuid.UUID
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return fmt.Errorf("collect replies: %w", err)
			}
			ids = append(ids, children...)
			frontier = children
		}

		// 与 CastVote 相同的加锁顺序：先锁评论行，再动投票行
		var locked []uuid.UUID
		err := tx.Model(&models.Comment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Pluck("id", &locked).Error
		if err != nil {
			return fmt.Errorf("lock comments: %w", err)
		}
		if len(locked) == 0 {
			return ErrCommentNotFound
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Report{}).Error; err != nil {
			return fmt.Errorf("delete reports: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return fmt.Errorf("delete comments: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return nil
	})
}

// attachAuthors 批量填充评论作者资料，没有资料的用户保持 nil
func (s *Store) attachAuthors(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(comments))
	userIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; !ok {
			seen[c.UserID] = struct{}{}
			userIDs = append(userIDs, c.UserID)
		}
	}

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return fmt.Errorf("load comment authors: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}
	for _, c := range comments {
		c.Author = byID[c.UserID]
	}
	return nil
}
