package agenda

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListRange returns events starting in [from, to), earliest first.
	ListRange(ctx context.Context, from, to time.Time) ([]*Event, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Event, int, error)
	ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Event, error)
	// SetStatusByTreatment moves every event of a treatment that is not yet
	// in a final status to status, returning the changed events.
	SetStatusByTreatment(ctx context.Context, treatmentID uuid.UUID, status EventStatus) ([]*Event, error)
}
