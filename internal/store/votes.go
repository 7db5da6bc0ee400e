package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"citybasic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CastVote records the user's vote on a comment and returns the comment's new total.
//
// The comment row is locked for the duration of the transaction, so the cached
// vote_count moves by exactly (new - previous) even under concurrent voting.
func (s *Store) CastVote(ctx context.Context, userID, commentID uuid.UUID, value int) (int, error) {
	var total int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "vote_count").
			Take(&comment, "id = ?", commentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("lock comment: %w", err)
		}

		previous := 0
		var existing models.Vote
		err = tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Take(&existing).Error
		switch {
		case err == nil:
			previous = existing.Value
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("load previous vote: %w", err)
		}

		vote := models.Vote{UserID: userID, CommentID: commentID, Value: value}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&vote).Error
		if err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}

		delta := value - previous
		if delta != 0 {
			err = tx.Model(&models.Comment{}).
				Where("id = ?", commentID).
				UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error
			if err != nil {
				return fmt.Errorf("update vote count: %w", err)
			}
		}

		total = comment.VoteCount + delta
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// VoteSum 直接从 votes 表汇总，用于校验和修复缓存计数
func (s *Store) VoteSum(ctx context.Context, commentID uuid.UUID) (int, error) {
	return voteSum(s.db.WithContext(ctx), commentID)
}

func voteSum(tx *gorm.DB, commentID uuid.UUID) (int, error) {
	var sum int
	err := tx.Model(&models.Vote{}).
		Where("comment_id = ?", commentID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum votes: %w", err)
	}
	return sum, nil
}

// RecountVotes rewrites the cached vote_count from the vote ledger.
//
// It takes the same comment row lock as CastVote before summing, so a vote
// committed in between cannot be overwritten by a stale sum.
func (s *Store) RecountVotes(ctx context.Context, commentID uuid.UUID) (int, error) {
	var sum int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Take(&comment, "id = ?", commentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("lock comment: %w", err)
		}

		if sum, err = voteSum(tx, commentID); err != nil {
			return err
		}
		err = tx.Model(&models.Comment{}).
			Where("id = ?", commentID).
			UpdateColumn("vote_count", sum).Error
		if err != nil {
			return fmt.Errorf("write vote count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// UserVotes returns the user's vote value for each of the given comments that has one.
func (s *Store) UserVotes(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	result := make(map[uuid.UUID]int)
	if len(commentIDs) == 0 {
		return result, nil
	}

	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("load user votes: %w", err)
	}
	for _, v := range votes {
		result[v.CommentID] = v.Value
	}
	return result, nil
}

// RecentlyVoted lists comments whose votes changed since the given time.
func (s *Store) RecentlyVoted(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("updated_at >= ?", since).
		Distinct().
		Limit(limit).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list recently voted comments: %w", err)
	}
	return ids, nil
}
