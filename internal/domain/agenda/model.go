package agenda

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("agenda event not found")

type EventType string

const (
	TypeTreatmentScheduling EventType = "treatment_scheduling"
	TypeEvaluation          EventType = "evaluation"
	TypeInitialConsultation EventType = "initial_consultation"
	TypeMeeting             EventType = "meeting"
	TypeGeneral             EventType = "general"
	TypeBlocked             EventType = "blocked"
)

var eventTypeLabels = map[EventType]string{
	TypeTreatmentScheduling: "Agendamento de Tratamento",
	TypeEvaluation:          "Avaliação",
	TypeInitialConsultation: "Consulta Inicial",
	TypeMeeting:             "Reunião",
	TypeGeneral:             "Evento Geral",
	TypeBlocked:             "Horário Bloqueado",
}

func (t EventType) Label() string { return eventTypeLabels[t] }

type EventStatus string

const (
	StatusScheduled  EventStatus = "scheduled"
	StatusInProgress EventStatus = "in_progress"
	StatusDone       EventStatus = "done"
	StatusCancelled  EventStatus = "cancelled"
	StatusNoShow     EventStatus = "no_show"
)

var eventStatusLabels = map[EventStatus]string{
	StatusScheduled:  "Agendado",
	StatusInProgress: "Em Atendimento",
	StatusDone:       "Concluído",
	StatusCancelled:  "Cancelado",
	StatusNoShow:     "Não Compareceu",
}

func (s EventStatus) Label() string { return eventStatusLabels[s] }

// Final reports whether the event is over and no longer changes with its
// treatment.
func (s EventStatus) Final() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusNoShow
}

// Event maps to the agenda_event table. Treatment scheduling events carry the
// patient, treatment and tooth they were created for.
type Event struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Type        EventType   `db:"type" json:"type"`
	Title       string      `db:"title" json:"title"`
	Start       time.Time   `db:"start_time" json:"start"`
	End         time.Time   `db:"end_time" json:"end"`
	PatientID   *uuid.UUID  `db:"patient_id" json:"patient_id,omitempty"`
	PatientName *string     `db:"patient_name" json:"patient_name,omitempty"`
	TreatmentID *uuid.UUID  `db:"treatment_id" json:"treatment_id,omitempty"`
	ToothNumber *int        `db:"tooth_number" json:"tooth_number,omitempty"`
	Description *string     `db:"description" json:"description,omitempty"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Duration of the event.
func (e *Event) Duration() time.Duration { return e.End.Sub(e.Start) }

// Overlaps reports whether e and other share any instant.
func (e *Event) Overlaps(other *Event) bool {
	return e.Start.Before(other.End) && other.Start.Before(e.End)
}
