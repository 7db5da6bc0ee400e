package store

import (
	"context"
	"fmt"

	"citybasic/internal/models"

	"github.com/google/uuid"
)

// CreateReport queues a report. A second report of the same comment by the same
// user yields ErrAlreadyReported.
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Comment{}).Where("id = ?", report.CommentID).Count(&count).Error; err != nil {
		return fmt.Errorf("check reported comment: %w", err)
	}
	if count == 0 {
		return ErrCommentNotFound
	}

	if err := db.Create(report).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyReported
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// PendingReports lists reports waiting for moderation, oldest first.
func (s *Store) PendingReports(ctx context.Context, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ReportPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	return reports, nil
}

// SetReportStatus moves a report to reviewed or dismissed.
func (s *Store) SetReportStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		UpdateColumn("status", status)
	if res.Error != nil {
		return fmt.Errorf("update report status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
