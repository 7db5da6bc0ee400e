package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Only these table/column combinations may be counted; the names are interpolated into SQL.
var countableColumns = map[string]map[string]bool{
	"comments": {"user_id": true, "created_at": true, "updated_at": true},
	"votes":    {"user_id": true, "created_at": true, "updated_at": true},
	"reports":  {"reporter_id": true, "created_at": true},
}

// CountSince counts rows in table owned by userID whose timeColumn is at or after since.
func (s *Store) CountSince(ctx context.Context, table, userColumn, timeColumn string, userID uuid.UUID, since time.Time) (int64, error) {
	cols, ok := countableColumns[table]
	if !ok || !cols[userColumn] || !cols[timeColumn] {
		return 0, fmt.Errorf("count %s.%s/%s: not countable", table, userColumn, timeColumn)
	}

	var count int64
	err := s.db.WithContext(ctx).
		Table(table).
		Where(userColumn+" = ? AND "+timeColumn+" >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
