package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hims/hims/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

const userCols = `id, username, full_name, role, password_hash, active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.PasswordHash,
		&u.Active, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO app_user (id, username, full_name, role, password_hash, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Username, u.FullName, u.Role, u.PasswordHash, u.Active,
	)
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE app_user
		SET full_name = $2, role = $3, password_hash = $4, active = $5,
			last_login = $6, updated_at = now()
		WHERE id = $1`,
		u.ID, u.FullName, u.Role, u.PasswordHash, u.Active, u.LastLogin,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+userCols+` FROM app_user ORDER BY username LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// =========== Setting Repository ===========

type settingRepoPG struct{ pool *pgxpool.Pool }

func NewSettingRepo(pool *pgxpool.Pool) SettingRepository { return &settingRepoPG{pool: pool} }

func (r *settingRepoPG) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT key, value, updated_at FROM setting WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepoPG) Upsert(ctx context.Context, s *Setting) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO setting (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.Key, s.Value,
	)
	return err
}

func (r *settingRepoPG) List(ctx context.Context) ([]*Setting, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT key, value, updated_at FROM setting ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// =========== Audit Repository ===========

type auditRepoPG struct{ pool *pgxpool.Pool }

func NewAuditRepo(pool *pgxpool.Pool) AuditRepository { return &auditRepoPG{pool: pool} }

func (r *auditRepoPG) Append(ctx context.Context, e *AuditEntry) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, entity, entity_id, detail)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Actor, e.Action, e.Entity, e.EntityID, e.Detail,
	)
	return err
}

func (r *auditRepoPG) List(ctx context.Context, entity, actor string, limit, offset int) ([]*AuditEntry, int, error) {
	where := ` WHERE ($1 = '' OR entity = $1) AND ($2 = '' OR actor = $2)`

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT count(*) FROM audit_log`+where, entity, actor).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, actor, action, entity, entity_id, detail, created_at
		FROM audit_log`+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		entity, actor, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID,
			&e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepo(pool *pgxpool.Pool) ReportRepository { return &reportRepoPG{pool: pool} }

func (r *reportRepoPG) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	report := &RevenueReport{
		From:        from,
		To:          to,
		TotalBilled: decimal.Zero,
		Collected:   decimal.Zero,
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT category, coalesce(sum(total), 0)
		FROM ipd_charge
		WHERE charge_date >= $1 AND charge_date < $2
		GROUP BY category
		ORDER BY category`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		line := &RevenueLine{}
		if err := rows.Scan(&line.Category, &line.Amount); err != nil {
			return nil, err
		}
		report.ByCategory = append(report.ByCategory, line)
		report.TotalBilled = report.TotalBilled.Add(line.Amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = conn(ctx, r.pool).QueryRow(ctx, `
		SELECT coalesce(sum(amount), 0)
		FROM ipd_payment
		WHERE paid_at >= $1 AND paid_at < $2`, from, to).Scan(&report.Collected)
	if err != nil {
		return nil, err
	}
	return report, nil
}
