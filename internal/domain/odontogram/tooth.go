package odontogram

import (
	"fmt"

	"github.com/google/uuid"
)

// Tooth is the clinical record of one FDI position.
type Tooth struct {
	ID           string        `json:"id"`
	Number       int           `json:"number"`
	Quadrant     Quadrant      `json:"quadrant"`
	Status       GeneralStatus `json:"status"`
	Conditions   []Condition   `json:"conditions"`
	Restorations []Restoration `json:"restorations"`
	Anomalies    []Anomaly     `json:"anomalies"`
	Treatments   []Treatment   `json:"treatments"`
	Notes        string        `json:"notes"`
}

// SetGeneralStatus replaces the general status, dropping the optional fields
// that do not apply to the new kind.
func (t *Tooth) SetGeneralStatus(s GeneralStatus) {
	t.Status = s.normalized()
}

func (t *Tooth) AddCondition(c Condition) error {
	if err := c.validate(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if indexOf(t.Conditions, c.ID, conditionID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidCondition, c.ID)
	}
	t.Conditions = append(t.Conditions, c.Clone())
	return nil
}

// UpdateCondition replaces the condition with the given id. The replacement
// keeps that id.
func (t *Tooth) UpdateCondition(id uuid.UUID, c Condition) error {
	if err := c.validate(); err != nil {
		return err
	}
	i := indexOf(t.Conditions, id, conditionID)
	if i < 0 {
		return fmt.Errorf("condition %s: %w", id, ErrNotFound)
	}
	c = c.Clone()
	c.ID = id
	t.Conditions[i] = c
	return nil
}

func (t *Tooth) RemoveCondition(id uuid.UUID) error {
	out, ok := withoutID(t.Conditions, id, conditionID)
	if !ok {
		return fmt.Errorf("condition %s: %w", id, ErrNotFound)
	}
	t.Conditions = out
	return nil
}

func (t *Tooth) AddRestoration(r Restoration) error {
	if err := r.validate(); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if indexOf(t.Restorations, r.ID, restorationID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidRestoration, r.ID)
	}
	t.Restorations = append(t.Restorations, r.Clone())
	return nil
}

func (t *Tooth) UpdateRestoration(id uuid.UUID, r Restoration) error {
	if err := r.validate(); err != nil {
		return err
	}
	i := indexOf(t.Restorations, id, restorationID)
	if i < 0 {
		return fmt.Errorf("restoration %s: %w", id, ErrNotFound)
	}
	r = r.Clone()
	r.ID = id
	t.Restorations[i] = r
	return nil
}

func (t *Tooth) RemoveRestoration(id uuid.UUID) error {
	out, ok := withoutID(t.Restorations, id, restorationID)
	if !ok {
		return fmt.Errorf("restoration %s: %w", id, ErrNotFound)
	}
	t.Restorations = out
	return nil
}

func (t *Tooth) AddAnomaly(a Anomaly) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if indexOf(t.Anomalies, a.ID, anomalyID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidAnomaly, a.ID)
	}
	t.Anomalies = append(t.Anomalies, a)
	return nil
}

func (t *Tooth) UpdateAnomaly(id uuid.UUID, a Anomaly) error {
	if err := a.validate(); err != nil {
		return err
	}
	i := indexOf(t.Anomalies, id, anomalyID)
	if i < 0 {
		return fmt.Errorf("anomaly %s: %w", id, ErrNotFound)
	}
	a.ID = id
	t.Anomalies[i] = a
	return nil
}

func (t *Tooth) RemoveAnomaly(id uuid.UUID) error {
	out, ok := withoutID(t.Anomalies, id, anomalyID)
	if !ok {
		return fmt.Errorf("anomaly %s: %w", id, ErrNotFound)
	}
	t.Anomalies = out
	return nil
}

// AddTreatment normalizes tr, assigns an id when it has none and appends it
// to the plan. It returns the stored treatment.
func (t *Tooth) AddTreatment(tr Treatment) (Treatment, error) {
	tr = tr.Normalize()
	if err := tr.Validate(); err != nil {
		return Treatment{}, err
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if indexOf(t.Treatments, tr.ID, treatmentID) >= 0 {
		return Treatment{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidTreatment, tr.ID)
	}
	t.Treatments = append(t.Treatments, tr)
	return tr.Clone(), nil
}

func (t *Tooth) UpdateTreatment(id uuid.UUID, tr Treatment) (Treatment, error) {
	tr = tr.Normalize()
	if err := tr.Validate(); err != nil {
		return Treatment{}, err
	}
	i := indexOf(t.Treatments, id, treatmentID)
	if i < 0 {
		return Treatment{}, fmt.Errorf("treatment %s: %w", id, ErrNotFound)
	}
	tr.ID = id
	t.Treatments[i] = tr
	return tr.Clone(), nil
}

func (t *Tooth) RemoveTreatment(id uuid.UUID) error {
	out, ok := withoutID(t.Treatments, id, treatmentID)
	if !ok {
		return fmt.Errorf("treatment %s: %w", id, ErrNotFound)
	}
	t.Treatments = out
	return nil
}

// Treatment returns a copy of the treatment with the given id.
func (t *Tooth) Treatment(id uuid.UUID) (Treatment, error) {
	i := indexOf(t.Treatments, id, treatmentID)
	if i < 0 {
		return Treatment{}, fmt.Errorf("treatment %s: %w", id, ErrNotFound)
	}
	return t.Treatments[i].Clone(), nil
}

// Validate checks the general status and every record on the tooth.
func (t *Tooth) Validate() error {
	if !t.Status.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStatus, t.Status.Kind)
	}
	for _, c := range t.Conditions {
		if err := c.validate(); err != nil {
			return err
		}
	}
	for _, r := range t.Restorations {
		if err := r.validate(); err != nil {
			return err
		}
	}
	for _, a := range t.Anomalies {
		if err := a.validate(); err != nil {
			return err
		}
	}
	for _, tr := range t.Treatments {
		if err := tr.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the tooth. Nil lists stay nil.
func (t Tooth) Clone() Tooth {
	t.Status = t.Status.clone()
	if t.Conditions != nil {
		out := make([]Condition, len(t.Conditions))
		for i, c := range t.Conditions {
			out[i] = c.Clone()
		}
		t.Conditions = out
	}
	if t.Restorations != nil {
		out := make([]Restoration, len(t.Restorations))
		for i, r := range t.Restorations {
			out[i] = r.Clone()
		}
		t.Restorations = out
	}
	if t.Anomalies != nil {
		t.Anomalies = append(make([]Anomaly, 0, len(t.Anomalies)), t.Anomalies...)
	}
	if t.Treatments != nil {
		out := make([]Treatment, len(t.Treatments))
		for i, tr := range t.Treatments {
			out[i] = tr.Clone()
		}
		t.Treatments = out
	}
	return t
}

func conditionID(c Condition) uuid.UUID     { return c.ID }
func restorationID(r Restoration) uuid.UUID { return r.ID }
func anomalyID(a Anomaly) uuid.UUID         { return a.ID }
func treatmentID(t Treatment) uuid.UUID     { return t.ID }

func indexOf[T any](list []T, id uuid.UUID, key func(T) uuid.UUID) int {
	for i, v := range list {
		if key(v) == id {
			return i
		}
	}
	return -1
}

// withoutID returns a new slice without the element carrying id. The input
// slice is not modified.
func withoutID[T any](list []T, id uuid.UUID, key func(T) uuid.UUID) ([]T, bool) {
	i := indexOf(list, id, key)
	if i < 0 {
		return list, false
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), true
}
