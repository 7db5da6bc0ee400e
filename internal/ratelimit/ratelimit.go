// Package ratelimit throttles user actions by counting the rows they created recently.
// It keeps no state of its own: the rows are the ledger.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rule limits a user to MaxRequests rows in Table within Window.
type Rule struct {
	Name        string
	Table       string
	UserColumn  string
	TimeColumn  string
	Window      time.Duration
	MaxRequests int
}

var (
	Comments = Rule{Name: "comments", Table: "comments", UserColumn: "user_id", TimeColumn: "created_at", Window: time.Minute, MaxRequests: 1}
	// Votes are upserted, so updated_at is what moves on every click.
	Votes   = Rule{Name: "votes", Table: "votes", UserColumn: "user_id", TimeColumn: "updated_at", Window: 5 * time.Second, MaxRequests: 10}
	Reports = Rule{Name: "reports", Table: "reports", UserColumn: "reporter_id", TimeColumn: "created_at", Window: 5 * time.Minute, MaxRequests: 5}
)

// Counter counts a user's rows in a table since a point in time.
type Counter interface {
	CountSince(ctx context.Context, table, userColumn, timeColumn string, userID uuid.UUID, since time.Time) (int64, error)
}

type Limiter struct {
	counter Counter
	log     *zap.SugaredLogger
	now     func() time.Time
}

func New(counter Counter, log *zap.SugaredLogger) *Limiter {
	return &Limiter{counter: counter, log: log, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// IsLimited reports whether the user already reached rule.MaxRequests inside the window.
// A failed count lets the request through.
func (l *Limiter) IsLimited(ctx context.Context, userID uuid.UUID, rule Rule) bool {
	since := l.now().Add(-rule.Window)
	count, err := l.counter.CountSince(ctx, rule.Table, rule.UserColumn, rule.TimeColumn, userID, since)
	if err != nil {
		l.log.Warnw("rate limit check failed, allowing request",
			"rule", rule.Name,
			"user_id", userID,
			"error", err,
		)
		return false
	}
	return count >= int64(rule.MaxRequests)
}
