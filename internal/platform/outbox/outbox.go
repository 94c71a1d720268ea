// Package outbox records domain events in the same transaction as the change
// that caused them and relays committed events to a Redis stream.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/odonto/internal/platform/db"
)

// Record is one row of a tenant's outbox table.
type Record struct {
	ID          int64           `json:"id"`
	Tenant      string          `json:"tenant"`
	EventType   string          `json:"event_type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Writer appends events to the outbox of the tenant bound to ctx.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// Append inserts an event. Called inside db.Transactor.WithTx the event
// commits or rolls back with the surrounding change.
func (w *Writer) Append(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	_, err = db.Conn(ctx, w.pool).Exec(ctx,
		`INSERT INTO outbox (event_type, aggregate_id, payload) VALUES ($1, $2, $3)`,
		eventType, aggregateID, data)
	if err != nil {
		return fmt.Errorf("append %s: %w", eventType, err)
	}
	return nil
}
