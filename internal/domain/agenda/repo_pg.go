package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/odonto/internal/platform/db"
)

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &eventRepoPG{pool: pool} }

func (r *eventRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const eventCols = `id, type, title, start_time, end_time, patient_id, patient_name,
	treatment_id, tooth_number, description, status, created_at, updated_at`

func (r *eventRepoPG) scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Type, &e.Title, &e.Start, &e.End, &e.PatientID, &e.PatientName,
		&e.TreatmentID, &e.ToothNumber, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepoPG) collect(rows pgx.Rows) ([]*Event, error) {
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *eventRepoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO agenda_event (id, type, title, start_time, end_time, patient_id, patient_name,
			treatment_id, tooth_number, description, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		e.ID, e.Type, e.Title, e.Start, e.End, e.PatientID, e.PatientName,
		e.TreatmentID, e.ToothNumber, e.Description, e.Status).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *eventRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return r.scanEvent(r.conn(ctx).QueryRow(ctx, `SELECT `+eventCols+` FROM agenda_event WHERE id = $1`, id))
}

func (r *eventRepoPG) Update(ctx context.Context, e *Event) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE agenda_event SET type=$2, title=$3, start_time=$4, end_time=$5, patient_id=$6,
			patient_name=$7, treatment_id=$8, tooth_number=$9, description=$10, status=$11,
			updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		e.ID, e.Type, e.Title, e.Start, e.End, e.PatientID,
		e.PatientName, e.TreatmentID, e.ToothNumber, e.Description, e.Status).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *eventRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM agenda_event WHERE id = $1`, id)
	return err
}

func (r *eventRepoPG) ListRange(ctx context.Context, from, to time.Time) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+eventCols+` FROM agenda_event
		WHERE start_time >= $1 AND start_time < $2 ORDER BY start_time, id`, from, to)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *eventRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM agenda_event WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+eventCols+` FROM agenda_event
		WHERE patient_id = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *eventRepoPG) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+eventCols+` FROM agenda_event
		WHERE treatment_id = $1 ORDER BY start_time`, treatmentID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *eventRepoPG) SetStatusByTreatment(ctx context.Context, treatmentID uuid.UUID, status EventStatus) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		UPDATE agenda_event SET status=$2, updated_at=NOW()
		WHERE treatment_id = $1 AND status NOT IN ('%s','%s','%s')
		RETURNING `+eventCols, StatusDone, StatusCancelled, StatusNoShow), treatmentID, status)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
