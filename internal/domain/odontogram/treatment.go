package odontogram

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type TreatmentStatus string

const (
	TreatmentPlanned   TreatmentStatus = "planned"
	TreatmentExecuted  TreatmentStatus = "executed"
	TreatmentConcluded TreatmentStatus = "concluded"
	TreatmentCancelled TreatmentStatus = "cancelled"
)

var treatmentStatusLabels = map[TreatmentStatus]string{
	TreatmentPlanned:   "Planejado",
	TreatmentExecuted:  "Executado",
	TreatmentConcluded: "Concluído",
	TreatmentCancelled: "Cancelado",
}

func (s TreatmentStatus) Label() string { return treatmentStatusLabels[s] }

func (s TreatmentStatus) Valid() bool {
	_, ok := treatmentStatusLabels[s]
	return ok
}

// treatmentTransitions lists the lifecycle steps a treatment may take.
// Concluded and cancelled are terminal.
var treatmentTransitions = map[TreatmentStatus][]TreatmentStatus{
	TreatmentPlanned:  {TreatmentExecuted, TreatmentCancelled},
	TreatmentExecuted: {TreatmentConcluded, TreatmentCancelled},
}

// CanTransition reports whether a treatment in status s may move to next.
func (s TreatmentStatus) CanTransition(next TreatmentStatus) bool {
	for _, to := range treatmentTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Treatment is one planned or performed procedure on a tooth. Agenda events
// and ledger entries refer back to it by ID.
type Treatment struct {
	ID            uuid.UUID       `json:"id"`
	ProcedureID   string          `json:"procedure_id"`
	ProcedureName string          `json:"procedure_name"`
	Status        TreatmentStatus `json:"status"`
	Value         float64         `json:"value"`
	ProBono       bool            `json:"pro_bono"`
	PlannedDate   *time.Time      `json:"planned_date,omitempty"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	ConcludedDate *time.Time      `json:"concluded_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// Normalize returns t with its invariants applied: pro bono treatments are
// worth zero, values are in cents, planned and concluded dates are
// day-granular, and an empty status means planned.
func (t Treatment) Normalize() Treatment {
	t = t.Clone()
	if t.Status == "" {
		t.Status = TreatmentPlanned
	}
	if t.ProBono {
		t.Value = 0
	}
	t.Value = math.Round(t.Value*100) / 100
	t.PlannedDate = dayPtr(t.PlannedDate)
	t.ConcludedDate = dayPtr(t.ConcludedDate)
	if t.ExecutedAt != nil {
		v := t.ExecutedAt.UTC()
		t.ExecutedAt = &v
	}
	return t
}

// Payable reports whether concluding t must record an inflow.
func (t Treatment) Payable() bool {
	return !t.ProBono && t.Value > 0
}

func (t Treatment) Validate() error {
	if t.ProcedureID == "" {
		return fmt.Errorf("%w: procedure_id is required", ErrInvalidTreatment)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTreatment, t.Status)
	}
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value < 0 {
		return fmt.Errorf("%w: value must be a non-negative amount", ErrInvalidTreatment)
	}
	return nil
}

func (t Treatment) Clone() Treatment {
	t.PlannedDate = cloneTime(t.PlannedDate)
	t.ExecutedAt = cloneTime(t.ExecutedAt)
	t.ConcludedDate = cloneTime(t.ConcludedDate)
	return t
}
