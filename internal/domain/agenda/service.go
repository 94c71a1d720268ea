package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/platform/websocket"
)

// DefaultDuration is the length of an event created without an explicit end.
const DefaultDuration = time.Hour

type Service struct {
	events Repository
	notify websocket.Notifier
}

func NewService(events Repository, notify websocket.Notifier) *Service {
	if notify == nil {
		notify = websocket.Discard
	}
	return &Service{events: events, notify: notify}
}

func validate(e *Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.Type == "" {
		e.Type = TypeGeneral
	}
	if _, ok := eventTypeLabels[e.Type]; !ok {
		return fmt.Errorf("invalid event type: %s", e.Type)
	}
	if e.Status == "" {
		e.Status = StatusScheduled
	}
	if _, ok := eventStatusLabels[e.Status]; !ok {
		return fmt.Errorf("invalid event status: %s", e.Status)
	}
	if e.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if e.End.IsZero() {
		e.End = e.Start.Add(DefaultDuration)
	}
	if !e.End.After(e.Start) {
		return fmt.Errorf("end must be after start")
	}
	return nil
}

func (s *Service) CreateEvent(ctx context.Context, e *Event) error {
	if err := validate(e); err != nil {
		return err
	}
	if err := s.events.Create(ctx, e); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceAgenda, "created", e.ID, e)
	return nil
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *Service) UpdateEvent(ctx context.Context, e *Event) error {
	if err := validate(e); err != nil {
		return err
	}
	if err := s.events.Update(ctx, e); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceAgenda, "updated", e.ID, e)
	return nil
}

// SetStatus moves a single event to status, keeping everything else.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status EventStatus) (*Event, error) {
	if _, ok := eventStatusLabels[status]; !ok {
		return nil, fmt.Errorf("invalid event status: %s", status)
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Status = status
	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	s.notify.Notify(ctx, websocket.ResourceAgenda, "updated", e.ID, e)
	return e, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceAgenda, "deleted", id, nil)
	return nil
}

// ListRange returns the events starting in [from, to).
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]*Event, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("to must be after from")
	}
	return s.events.ListRange(ctx, from, to)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return s.events.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Event, error) {
	return s.events.ListByTreatment(ctx, treatmentID)
}

// CancelByTreatment cancels the open events of a treatment. Events already
// done, cancelled or missed keep their status.
func (s *Service) CancelByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Event, error) {
	changed, err := s.events.SetStatusByTreatment(ctx, treatmentID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	for _, e := range changed {
		s.notify.Notify(ctx, websocket.ResourceAgenda, "updated", e.ID, e)
	}
	return changed, nil
}
