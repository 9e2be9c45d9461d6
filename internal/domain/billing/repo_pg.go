package billing

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

const chargeCols = `id, admission_id, category, description, quantity, unit_price, total, charge_date, created_at`

func (r *repoPG) AddCharge(ctx context.Context, c *Charge) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ipd_charge (id, admission_id, category, description, quantity, unit_price, total, charge_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.AdmissionID, c.Category, c.Description, c.Quantity, c.UnitPrice, c.Total, c.ChargeDate,
	)
	return err
}

func (r *repoPG) ListCharges(ctx context.Context, admissionID uuid.UUID) ([]*Charge, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+chargeCols+` FROM ipd_charge WHERE admission_id = $1 ORDER BY created_at, id`,
		admissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*Charge
	for rows.Next() {
		c := &Charge{}
		if err := rows.Scan(&c.ID, &c.AdmissionID, &c.Category, &c.Description,
			&c.Quantity, &c.UnitPrice, &c.Total, &c.ChargeDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *repoPG) ReplaceCharges(ctx context.Context, admissionID uuid.UUID, charges []*Charge) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM ipd_charge WHERE admission_id = $1`, admissionID); err != nil {
		return err
	}
	for _, c := range charges {
		c.AdmissionID = admissionID
		if err := r.AddCharge(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

const paymentCols = `id, admission_id, amount, mode, reference, paid_at, created_at`

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ipd_payment (id, admission_id, amount, mode, reference, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.AdmissionID, p.Amount, p.Mode, p.Reference, p.PaidAt,
	)
	return err
}

func (r *repoPG) ListPayments(ctx context.Context, admissionID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM ipd_payment WHERE admission_id = $1 ORDER BY created_at, id`,
		admissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(&p.ID, &p.AdmissionID, &p.Amount, &p.Mode,
			&p.Reference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repoPG) GetParams(ctx context.Context, admissionID uuid.UUID) (*BillParams, error) {
	p := &BillParams{}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT admission_id, discount_percent, tax_percent, finalized, created_at, updated_at
		FROM ipd_bill WHERE admission_id = $1`, admissionID,
	).Scan(&p.AdmissionID, &p.DiscountPercent, &p.TaxPercent, &p.Finalized, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParamsNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) UpsertParams(ctx context.Context, p *BillParams) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ipd_bill (admission_id, discount_percent, tax_percent, finalized)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (admission_id) DO UPDATE SET
			discount_percent = EXCLUDED.discount_percent,
			tax_percent = EXCLUDED.tax_percent,
			finalized = EXCLUDED.finalized,
			updated_at = NOW()`,
		p.AdmissionID, p.DiscountPercent, p.TaxPercent, p.Finalized,
	)
	return err
}

// txRunner adapts db.InTx to the TxRunner interface.
type txRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &txRunner{pool: pool}
}

func (t *txRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, t.pool, fn)
}
