package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote values. Zero clears a previous vote without deleting the row.
const (
	VoteDown  = -1
	VoteClear = 0
	VoteUp    = 1
)

// Vote is keyed by (user_id, comment_id) so each user holds at most one vote per comment.
type Vote struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CommentID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"comment_id"`
	Value     int       `gorm:"not null;check:chk_votes_value,value IN (-1, 0, 1)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"` // 每次 upsert 都会刷新，限流按此列统计
}

func ValidVoteValue(v int) bool {
	return v >= VoteDown && v <= VoteUp
}
