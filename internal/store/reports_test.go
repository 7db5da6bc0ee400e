package store

import (
	"context"
	"errors"
	"testing"

	"citybasic/internal/models"

	"github.com/google/uuid"
)

func TestCreateReportDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, s, "avery")
	reporter := seedUser(t, s, "blake")
	comment := seedComment(t, s, author.ID, "paris", nil)

	first := &models.Report{CommentID: comment.ID, ReporterID: reporter.ID, Reason: "spam"}
	if err := s.CreateReport(ctx, first); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if first.Status != models.ReportPending {
		t.Errorf("expected pending status, got %s", first.Status)
	}

	second := &models.Report{CommentID: comment.ID, ReporterID: reporter.ID, Reason: "still spam"}
	if err := s.CreateReport(ctx, second); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("expected ErrAlreadyReported, got %v", err)
	}

	var rows int64
	testDB.Model(&models.Report{}).Where("comment_id = ?", comment.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 report row, got %d", rows)
	}

	// another reporter is fine
	if err := s.CreateReport(ctx, &models.Report{CommentID: comment.ID, ReporterID: author.ID, Reason: "off topic"}); err != nil {
		t.Errorf("second reporter: %v", err)
	}
}

func TestCreateReportUnknownComment(t *testing.T) {
	s := newTestStore(t)
	reporter := seedUser(t, s, "blake")

	err := s.CreateReport(context.Background(), &models.Report{CommentID: uuid.New(), ReporterID: reporter.ID, Reason: "spam"})
	if !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestReportModeration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := seedUser(t, s, "avery")
	reporter := seedUser(t, s, "blake")
	comment := seedComment(t, s, author.ID, "paris", nil)

	report := &models.Report{CommentID: comment.ID, ReporterID: reporter.ID, Reason: "spam"}
	if err := s.CreateReport(ctx, report); err != nil {
		t.Fatal(err)
	}

	pending, err := s.PendingReports(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending report, got %d (%v)", len(pending), err)
	}

	if err := s.SetReportStatus(ctx, report.ID, models.ReportDismissed); err != nil {
		t.Fatalf("SetReportStatus: %v", err)
	}
	pending, _ = s.PendingReports(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("expected no pending reports, got %d", len(pending))
	}
	if err := s.SetReportStatus(ctx, uuid.New(), models.ReportReviewed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
