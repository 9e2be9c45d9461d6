package ward

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hims/hims/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const wardCols = `id, name, ward_type, floor, daily_rate, active, created_at, updated_at`

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Floor, &w.DailyRate, &w.Active,
		&w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ward (id, name, ward_type, floor, daily_rate, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		w.ID, w.Name, w.Type, w.Floor, w.DailyRate, w.Active,
	)
	return err
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := scanWard(r.conn(ctx).QueryRow(ctx,
		`SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWardNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repoPG) UpdateWard(ctx context.Context, w *Ward) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE ward
		SET name = $2, ward_type = $3, floor = $4, daily_rate = $5, active = $6,
			updated_at = now()
		WHERE id = $1`,
		w.ID, w.Name, w.Type, w.Floor, w.DailyRate, w.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWardNotFound
	}
	return nil
}

func (r *repoPG) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM ward`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+wardCols+` FROM ward ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, 0, err
		}
		wards = append(wards, w)
	}
	return wards, total, rows.Err()
}

const bedCols = `id, ward_id, number, status, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.WardID, &b.Number, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (id, ward_id, number, status)
		VALUES ($1,$2,$3,$4)`,
		b.ID, b.WardID, b.Number, b.Status,
	)
	return err
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM bed WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBedNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) UpdateBed(ctx context.Context, b *Bed) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET number = $2, status = $3, updated_at = now()
		WHERE id = $1`,
		b.ID, b.Number, b.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBedNotFound
	}
	return nil
}

func (r *repoPG) ListBeds(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	query := `SELECT ` + bedCols + ` FROM bed WHERE ward_id = $1`
	args := []interface{}{wardID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY number`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (r *repoPG) SetBedStatus(ctx context.Context, id uuid.UUID, from, to BedStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBedNotFound
	}
	return nil
}

func (r *repoPG) Occupancy(ctx context.Context) ([]*Occupancy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT w.id, w.name,
			count(b.id),
			count(b.id) FILTER (WHERE b.status = 'occupied'),
			count(b.id) FILTER (WHERE b.status = 'available')
		FROM ward w
		LEFT JOIN bed b ON b.ward_id = w.id
		WHERE w.active
		GROUP BY w.id, w.name
		ORDER BY w.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Occupancy
	for rows.Next() {
		o := &Occupancy{}
		if err := rows.Scan(&o.WardID, &o.WardName, &o.Total, &o.Occupied, &o.Available); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
