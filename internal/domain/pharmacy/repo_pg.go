package pharmacy

import (
	"context"
	"errors"
	"time"

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

const medicineCols = `id, name, category, batch_no, expiry_date, stock, reorder_level, unit_price, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.BatchNo, &m.ExpiryDate,
		&m.Stock, &m.ReorderLevel, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) CreateMedicine(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicine (id, name, category, batch_no, expiry_date, stock, reorder_level, unit_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.Name, m.Category, m.BatchNo, m.ExpiryDate, m.Stock, m.ReorderLevel, m.UnitPrice,
	)
	return err
}

func (r *repoPG) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) UpdateMedicine(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine
		SET name = $2, category = $3, batch_no = $4, expiry_date = $5,
			stock = $6, reorder_level = $7, unit_price = $8, updated_at = now()
		WHERE id = $1`,
		m.ID, m.Name, m.Category, m.BatchNo, m.ExpiryDate, m.Stock, m.ReorderLevel, m.UnitPrice,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicineNotFound
	}
	return nil
}

func (r *repoPG) ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM medicine`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + medicineCols + ` FROM medicine` + where + ` ORDER BY name`
	if search != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	return meds, total, rows.Err()
}

func (r *repoPG) LowStock(ctx context.Context) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE stock <= reorder_level ORDER BY stock`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *repoPG) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE expiry_date <= $1 ORDER BY expiry_date`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *repoPG) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`,
		id, qty,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

const saleCols = `id, bill_no, mrn, subtotal, discount_percent, total, mode, sold_at, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.BillNo, &s.MRN, &s.Subtotal, &s.DiscountPercent,
		&s.Total, &s.Mode, &s.SoldAt, &s.CreatedAt)
	return &s, err
}

func (r *repoPG) CreateSale(ctx context.Context, s *Sale) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacy_sale (id, bill_no, mrn, subtotal, discount_percent, total, mode, sold_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.BillNo, s.MRN, s.Subtotal, s.DiscountPercent, s.Total, s.Mode, s.SoldAt,
	)
	if err != nil {
		return err
	}
	for _, item := range s.Items {
		item.ID = uuid.New()
		item.SaleID = s.ID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO pharmacy_sale_item (id, sale_id, medicine_id, name, quantity, unit_price, total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, item.SaleID, item.MedicineID, item.Name, item.Quantity, item.UnitPrice, item.Total,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) saleItems(ctx context.Context, saleID uuid.UUID) ([]*SaleItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, sale_id, medicine_id, name, quantity, unit_price, total
		FROM pharmacy_sale_item WHERE sale_id = $1 ORDER BY name`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SaleItem
	for rows.Next() {
		item := &SaleItem{}
		if err := rows.Scan(&item.ID, &item.SaleID, &item.MedicineID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repoPG) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	s, err := scanSale(r.conn(ctx).QueryRow(ctx,
		`SELECT `+saleCols+` FROM pharmacy_sale WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Items, err = r.saleItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM pharmacy_sale`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+saleCols+` FROM pharmacy_sale ORDER BY sold_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, s := range sales {
		items, err := r.saleItems(ctx, s.ID)
		if err != nil {
			return nil, 0, err
		}
		s.Items = items
	}
	return sales, total, nil
}

// NewTxRunner exposes pool transactions to the service layer.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return txRunner{pool: pool}
}

type txRunner struct {
	pool *pgxpool.Pool
}

func (t txRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, t.pool, fn)
}
