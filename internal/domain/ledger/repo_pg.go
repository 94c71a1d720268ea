package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/odonto/internal/platform/db"
)

type transactionRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &transactionRepoPG{pool: pool} }

func (r *transactionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const txCols = `id, direction, date, description, amount, category, patient_id, patient_name,
	treatment_id, payment_method, expense_type, notes, created_at, updated_at`

func (r *transactionRepoPG) scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var method, expense *string
	err := row.Scan(&t.ID, &t.Direction, &t.Date, &t.Description, &t.Amount, &t.Category, &t.PatientID, &t.PatientName,
		&t.TreatmentID, &method, &expense, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if method != nil {
		m := PaymentMethod(*method)
		t.PaymentMethod = &m
	}
	if expense != nil {
		e := ExpenseType(*expense)
		t.ExpenseType = &e
	}
	return &t, nil
}

func nullableString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func (r *transactionRepoPG) Create(ctx context.Context, t *Transaction) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ledger_transaction (id, direction, date, description, amount, category, patient_id,
			patient_name, treatment_id, payment_method, expense_type, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		t.ID, string(t.Direction), t.Date, t.Description, t.Amount, t.Category, t.PatientID,
		t.PatientName, t.TreatmentID, nullableString(t.PaymentMethod), nullableString(t.ExpenseType), t.Notes,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *transactionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return r.scanTransaction(r.conn(ctx).QueryRow(ctx, `SELECT `+txCols+` FROM ledger_transaction WHERE id = $1`, id))
}

func (r *transactionRepoPG) Update(ctx context.Context, t *Transaction) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE ledger_transaction SET direction=$2, date=$3, description=$4, amount=$5, category=$6,
			patient_id=$7, patient_name=$8, treatment_id=$9, payment_method=$10, expense_type=$11,
			notes=$12, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		t.ID, string(t.Direction), t.Date, t.Description, t.Amount, t.Category,
		t.PatientID, t.PatientName, t.TreatmentID, nullableString(t.PaymentMethod), nullableString(t.ExpenseType),
		t.Notes).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *transactionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM ledger_transaction WHERE id = $1`, id)
	return err
}

// where renders f as SQL conditions starting at placeholder $1.
func where(f Filter) (string, []interface{}) {
	clause := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.From != nil {
		clause += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		clause += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, *f.To)
		idx++
	}
	if f.Direction != "" {
		clause += fmt.Sprintf(` AND direction = $%d`, idx)
		args = append(args, string(f.Direction))
		idx++
	}
	if f.PatientID != nil {
		clause += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
	}
	return clause, args
}

func (r *transactionRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Transaction, int, error) {
	clause, args := where(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ledger_transaction`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + txCols + ` FROM ledger_transaction` + clause + ` ORDER BY date DESC, created_at DESC`
	if limit >= 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *transactionRepoPG) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Transaction, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+txCols+` FROM ledger_transaction
		WHERE treatment_id = $1 ORDER BY date, created_at`, treatmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *transactionRepoPG) Summarize(ctx context.Context, f Filter) (Summary, error) {
	clause, args := where(f)
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'inflow'), 0)::float8,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'outflow'), 0)::float8,
		       COUNT(*)
		FROM ledger_transaction`+clause, args...).Scan(&s.Inflow, &s.Outflow, &s.Count)
	if err != nil {
		return Summary{}, err
	}
	s.Inflow = roundCents(s.Inflow)
	s.Outflow = roundCents(s.Outflow)
	s.Balance = roundCents(s.Inflow - s.Outflow)
	return s, nil
}
