package store

import (
	"context"
	"testing"
	"time"

	"citybasic/internal/models"
)

func TestCountSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "avery")

	old := seedComment(t, s, user.ID, "paris", nil)
	testDB.Model(&models.Comment{}).Where("id = ?", old.ID).UpdateColumn("created_at", time.Now().Add(-2*time.Hour))
	seedComment(t, s, user.ID, "paris", nil)

	n, err := s.CountSince(ctx, "comments", "user_id", "created_at", user.ID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 recent comment, got %d", n)
	}
}

func TestCountSinceRejectsUnknownColumns(t *testing.T) {
	s := New(nil)
	user := models.User{}
	if _, err := s.CountSince(context.Background(), "users; DROP TABLE users", "user_id", "created_at", user.ID, time.Now()); err == nil {
		t.Error("expected error for unknown table")
	}
	if _, err := s.CountSince(context.Background(), "reports", "user_id", "created_at", user.ID, time.Now()); err == nil {
		t.Error("expected error for unknown column")
	}
}
