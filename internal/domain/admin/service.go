package admin

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/hims/hims/internal/platform/auth"
)

type Service struct {
	users    UserRepository
	settings SettingRepository
	audit    AuditRepository
	reports  ReportRepository

	jwtSecret []byte
	tokenTTL  time.Duration

	now func() time.Time
}

func NewService(users UserRepository, settings SettingRepository, audit AuditRepository, reports ReportRepository, jwtSecret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		users:     users,
		settings:  settings,
		audit:     audit,
		reports:   reports,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// -- Users --

func (s *Service) CreateUser(ctx context.Context, username, fullName, role, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errValidation("username is required")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, errValidation("full name is required")
	}
	parsedRole, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, errValidation("password must be at least 8 characters")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, errValidation("username %q is taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		FullName:     strings.TrimSpace(fullName),
		Role:         parsedRole,
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, fullName, role string, active *bool) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fullName) != "" {
		u.FullName = strings.TrimSpace(fullName)
	}
	if role != "" {
		parsedRole, err := ParseRole(role)
		if err != nil {
			return nil, err
		}
		u.Role = parsedRole
	}
	if active != nil {
		u.Active = *active
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return errValidation("current password does not match")
	}
	if len(next) < 8 {
		return errValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.users.Update(ctx, u)
}

// Login verifies credentials and returns a signed bearer token. Inactive
// users cannot log in.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, errValidation("invalid credentials")
	}
	if !u.Active {
		return "", nil, errValidation("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, errValidation("invalid credentials")
	}

	token, err := auth.IssueToken(s.jwtSecret, u.ID.String(), u.Username, string(u.Role), s.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	u.LastLogin = &now
	if err := s.users.Update(ctx, u); err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// -- Settings --

func (s *Service) GetSetting(ctx context.Context, key string) (*Setting, error) {
	return s.settings.Get(ctx, key)
}

func (s *Service) ListSettings(ctx context.Context) ([]*Setting, error) {
	return s.settings.List(ctx)
}

func (s *Service) UpsertSetting(ctx context.Context, key, value string) (*Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errValidation("setting key is required")
	}
	switch key {
	case SettingDefaultTaxPercent, SettingDefaultDiscountPercent:
		p, err := decimal.NewFromString(value)
		if err != nil {
			return nil, errValidation("%s must be a decimal, got %q", key, value)
		}
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errValidation("%s must be between 0 and 100, got %s", key, p)
		}
	}
	setting := &Setting{Key: key, Value: value}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// PercentSetting reads a percent-valued setting, falling back when unset.
func (s *Service) PercentSetting(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	setting, err := s.settings.Get(ctx, key)
	if err == ErrSettingNotFound {
		return fallback, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	p, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return fallback, nil
	}
	return p, nil
}

// -- Audit --

// RecordAudit appends one audit row. Failures are returned to the caller but
// mutating services treat them as non-fatal.
func (s *Service) RecordAudit(ctx context.Context, actor, action, entity, entityID, detail string) error {
	return s.audit.Append(ctx, &AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	})
}

func (s *Service) ListAudit(ctx context.Context, entity, actor string, limit, offset int) ([]*AuditEntry, int, error) {
	return s.audit.List(ctx, entity, actor, limit, offset)
}

// -- Reports --

func (s *Service) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	if from.IsZero() || to.IsZero() {
		return nil, errValidation("from and to dates are required")
	}
	if !to.After(from) {
		return nil, errValidation("to must be after from")
	}
	return s.reports.Revenue(ctx, from, to)
}
