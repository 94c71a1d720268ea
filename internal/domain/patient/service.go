package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/platform/websocket"
)

type Service struct {
	patients Repository
	notify   websocket.Notifier
}

func NewService(patients Repository, notify websocket.Notifier) *Service {
	if notify == nil {
		notify = websocket.Discard
	}
	return &Service{patients: patients, notify: notify}
}

func normalize(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Email != nil && *p.Email != "" && !strings.Contains(*p.Email, "@") {
		return fmt.Errorf("email is invalid")
	}
	if p.BirthDate != nil {
		d := odontogram.Day(*p.BirthDate)
		if d.After(time.Now()) {
			return fmt.Errorf("birth_date cannot be in the future")
		}
		p.BirthDate = &d
	}
	return nil
}

// CreatePatient stores a new patient with an odontogram seeded from the
// template. Any odontogram in p is replaced.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := normalize(p); err != nil {
		return err
	}
	p.Odontogram = odontogram.New()
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourcePatients, "created", p.ID, p.Summary())
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// UpdatePatient replaces the demographic fields. The odontogram and record
// sections have their own operations and are left untouched.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := normalize(p); err != nil {
		return err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourcePatients, "updated", p.ID, p.Summary())
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourcePatients, "deleted", id, nil)
	return nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, params, limit, offset)
}

// UpdateRecord replaces one clinical record section and stamps it with the
// time of the update.
func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, section Section, rec Record) (Record, error) {
	if !validSections[section] {
		return nil, fmt.Errorf("invalid record section: %s", section)
	}
	if rec == nil {
		return nil, fmt.Errorf("record is required")
	}
	rec["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := s.patients.UpdateSection(ctx, id, section, rec); err != nil {
		return nil, err
	}
	s.notify.Notify(ctx, websocket.ResourcePatients, "updated", id, map[string]string{"section": string(section)})
	return rec, nil
}

func (s *Service) GetOdontogram(ctx context.Context, id uuid.UUID) (odontogram.Odontogram, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return odontogram.Odontogram{}, err
	}
	return p.Odontogram, nil
}

func (s *Service) GetTooth(ctx context.Context, id uuid.UUID, number int) (odontogram.Tooth, error) {
	o, err := s.GetOdontogram(ctx, id)
	if err != nil {
		return odontogram.Tooth{}, err
	}
	return o.Tooth(number)
}

// Treatments returns the patient's active and concluded treatment lists.
func (s *Service) Treatments(ctx context.Context, id uuid.UUID) (active, concluded []odontogram.ToothTreatment, err error) {
	o, err := s.GetOdontogram(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o.ActiveTreatments(), o.ConcludedTreatments(), nil
}
