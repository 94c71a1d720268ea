package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/odonto/internal/platform/db"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore reads the outbox tables of every tenant schema.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Tenants(ctx context.Context) ([]string, error) {
	return db.ListTenants(ctx, s.pool)
}

func (s *pgStore) Drain(ctx context.Context, tenant string, limit int, publish func(context.Context, []Record) error) (int, error) {
	schema, err := db.SchemaName(tenant)
	if err != nil {
		return 0, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT id, event_type, aggregate_id, payload, created_at
		FROM %s.outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, schema), limit)
	if err != nil {
		return 0, fmt.Errorf("select pending: %w", err)
	}
	var records []Record
	for rows.Next() {
		rec := Record{Tenant: tenant}
		if err := rows.Scan(&rec.ID, &rec.EventType, &rec.AggregateID, &rec.Payload, &rec.CreatedAt); err != nil {
			rows.Close()
			return 0, err
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := publish(ctx, records); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s.outbox SET published_at = NOW() WHERE id = ANY($1)`, schema), ids); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func (s *pgStore) Prune(ctx context.Context, tenant string, cutoff time.Time) (int64, error) {
	schema, err := db.SchemaName(tenant)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s.outbox WHERE published_at < $1`, schema), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune published: %w", err)
	}
	return tag.RowsAffected(), nil
}
