package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSettingNotFound = errors.New("setting not found")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
	List(ctx context.Context) ([]*Setting, error)
}

type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, entity, actor string, limit, offset int) ([]*AuditEntry, int, error)
}

// ReportRepository computes aggregates in SQL rather than loading ledgers
// into memory.
type ReportRepository interface {
	Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error)
}
