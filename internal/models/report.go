package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// MaxReportReason 举报理由的最大字符数
const MaxReportReason = 500

type Report struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reporter_comment" json:"comment_id"`
	ReporterID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reporter_comment;index" json:"reporter_id"`
	Reason     string       `gorm:"size:500;not null" json:"reason"`
	Status     ReportStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return nil
}
