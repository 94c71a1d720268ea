// Package treatment runs the lifecycle of tooth treatments: scheduling into
// the agenda, payment-gated conclusion into the ledger, cancellation and
// removal.
package treatment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/domain/agenda"
	"github.com/ehr/odonto/internal/domain/catalog"
	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/domain/patient"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnknownProcedure      = catalog.ErrUnknownProcedure
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPaymentPending        = errors.New("confirm or cancel the pending payment before saving the tooth")
	ErrPaymentRequired       = errors.New("concluding a paid treatment requires a payment confirmation")
	ErrPaymentMethodRequired = errors.New("a valid payment method is required")
	ErrConfirmationRequired  = errors.New("removing a treatment must be confirmed")
	ErrPendingNotFound       = errors.New("pending payment not found")
)

// Origin is the operation that raised a pending payment.
type Origin string

const (
	OriginAdd      Origin = "add"
	OriginConclude Origin = "conclude"
	OriginEdit     Origin = "edit"
)

// Pending is a conclusion held back until the clinician picks a payment
// method. Treatment is the record as it will be stored once confirmed.
type Pending struct {
	ID          uuid.UUID            `json:"id"`
	Origin      Origin               `json:"origin"`
	PatientID   uuid.UUID            `json:"patient_id"`
	ToothNumber int                  `json:"tooth_number"`
	Treatment   odontogram.Treatment `json:"treatment"`
	Amount      float64              `json:"amount"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Outcome is the result of an operation that may stop at a payment
// confirmation. Exactly one field is set.
type Outcome struct {
	Treatment *odontogram.Treatment `json:"treatment,omitempty"`
	Pending   *Pending              `json:"pending,omitempty"`
}

// Confirmation is the result of a confirmed payment.
type Confirmation struct {
	Treatment   odontogram.Treatment `json:"treatment"`
	Transaction *ledger.Transaction  `json:"transaction"`
}

// Scheduled is the result of scheduling a treatment.
type Scheduled struct {
	Treatment odontogram.Treatment `json:"treatment"`
	Event     *agenda.Event        `json:"event"`
}

// Patients is the part of the patient store the workflow writes through.
type Patients interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	UpdateOdontogram(ctx context.Context, id uuid.UUID, o odontogram.Odontogram) error
}

type Scheduler interface {
	CreateEvent(ctx context.Context, e *agenda.Event) error
	CancelByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*agenda.Event, error)
}

type Recorder interface {
	CreateTransaction(ctx context.Context, t *ledger.Transaction) error
}

type Procedures interface {
	Resolve(id string) (catalog.Procedure, error)
}

// TxRunner runs fn in one transaction. db.Transactor implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventLog records domain events with the change that caused them.
type EventLog interface {
	Append(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
}

// PendingStore holds pending payments per tenant until they are confirmed,
// cancelled or expire.
type PendingStore interface {
	Put(ctx context.Context, p *Pending) error
	Get(ctx context.Context, id uuid.UUID) (*Pending, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ForTooth(ctx context.Context, patientID uuid.UUID, tooth int) ([]*Pending, error)
}

// Domain event types appended to the event log.
const (
	EventScheduled = "treatment.scheduled"
	EventConcluded = "treatment.concluded"
	EventCancelled = "treatment.cancelled"
	EventRecorded  = "ledger.recorded"
)
