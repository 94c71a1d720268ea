package ledger

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns matching transactions, latest date first. A negative
	// limit returns all of them.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Transaction, int, error)
	ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Transaction, error)
	Summarize(ctx context.Context, f Filter) (Summary, error)
}
