// Package store holds the gorm-backed repositories for comments, votes, reports,
// favorites, profiles and users.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrInvalidParent   = errors.New("parent comment belongs to another thread")
	ErrAlreadyReported = errors.New("comment already reported")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// isUniqueViolation 判断是否为唯一约束冲突 (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
