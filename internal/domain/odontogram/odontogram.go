package odontogram

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Quadrant is one of the four FDI quadrants.
type Quadrant string

const (
	QuadrantUpperRight Quadrant = "upper_right"
	QuadrantUpperLeft  Quadrant = "upper_left"
	QuadrantLowerLeft  Quadrant = "lower_left"
	QuadrantLowerRight Quadrant = "lower_right"
)

var quadrantOrder = []Quadrant{QuadrantUpperRight, QuadrantUpperLeft, QuadrantLowerLeft, QuadrantLowerRight}

// ToothCount is the fixed number of positions on an adult odontogram.
const ToothCount = 32

// QuadrantOf returns the quadrant of an FDI number and false for numbers
// outside the permanent dentition.
func QuadrantOf(number int) (Quadrant, bool) {
	q, pos := number/10, number%10
	if q < 1 || q > 4 || pos < 1 || pos > 8 {
		return "", false
	}
	return quadrantOrder[q-1], true
}

// ToothID returns the stable id of the tooth at an FDI number.
func ToothID(number int) string { return "T" + strconv.Itoa(number) }

var template = func() [ToothCount]Tooth {
	var teeth [ToothCount]Tooth
	i := 0
	for q := 1; q <= 4; q++ {
		for pos := 1; pos <= 8; pos++ {
			n := q*10 + pos
			teeth[i] = Tooth{
				ID:           ToothID(n),
				Number:       n,
				Quadrant:     quadrantOrder[q-1],
				Status:       Present(),
				Conditions:   []Condition{},
				Restorations: []Restoration{},
				Anomalies:    []Anomaly{},
				Treatments:   []Treatment{},
			}
			i++
		}
	}
	return teeth
}()

// Odontogram is the fixed set of 32 tooth records of one patient. Values are
// immutable: WithTooth returns a new Odontogram.
type Odontogram struct {
	teeth [ToothCount]Tooth
}

// New returns an odontogram seeded from the master template.
func New() Odontogram {
	var o Odontogram
	for i := range template {
		o.teeth[i] = template[i].Clone()
	}
	return o
}

func slot(number int) (int, bool) {
	if _, ok := QuadrantOf(number); !ok {
		return 0, false
	}
	return (number/10-1)*8 + number%10 - 1, true
}

// Tooth returns a copy of the tooth at an FDI number.
func (o Odontogram) Tooth(number int) (Tooth, error) {
	i, ok := slot(number)
	if !ok {
		return Tooth{}, fmt.Errorf("%d: %w", number, ErrToothNotFound)
	}
	return o.teeth[i].Clone(), nil
}

// ToothByID returns a copy of the tooth with the given id.
func (o Odontogram) ToothByID(id string) (Tooth, error) {
	for i := range o.teeth {
		if o.teeth[i].ID == id {
			return o.teeth[i].Clone(), nil
		}
	}
	return Tooth{}, fmt.Errorf("%s: %w", id, ErrToothNotFound)
}

// WithTooth returns a copy of o with the tooth at t.Number replaced by t.
// The id and quadrant of the position cannot change.
func (o Odontogram) WithTooth(t Tooth) (Odontogram, error) {
	i, ok := slot(t.Number)
	if !ok {
		return o, fmt.Errorf("%d: %w", t.Number, ErrToothNotFound)
	}
	if err := t.Validate(); err != nil {
		return o, err
	}
	out := o.Clone()
	t = t.Clone()
	t.ID = out.teeth[i].ID
	t.Quadrant = out.teeth[i].Quadrant
	out.teeth[i] = t
	return out, nil
}

// Teeth returns copies of all teeth in FDI order.
func (o Odontogram) Teeth() []Tooth {
	out := make([]Tooth, ToothCount)
	for i := range o.teeth {
		out[i] = o.teeth[i].Clone()
	}
	return out
}

func (o Odontogram) Clone() Odontogram {
	var out Odontogram
	for i := range o.teeth {
		out.teeth[i] = o.teeth[i].Clone()
	}
	return out
}

// Empty reports whether o is the zero value rather than a seeded odontogram.
func (o Odontogram) Empty() bool { return o.teeth[0].Number == 0 }

func (o Odontogram) MarshalJSON() ([]byte, error) {
	if o.Empty() {
		o = New()
	}
	return json.Marshal(o.teeth[:])
}

// UnmarshalJSON accepts an array of exactly the 32 FDI positions in any
// order.
func (o *Odontogram) UnmarshalJSON(data []byte) error {
	var teeth []Tooth
	if err := json.Unmarshal(data, &teeth); err != nil {
		return err
	}
	if len(teeth) != ToothCount {
		return fmt.Errorf("odontogram: expected %d teeth, got %d", ToothCount, len(teeth))
	}
	var out Odontogram
	for _, t := range teeth {
		i, ok := slot(t.Number)
		if !ok {
			return fmt.Errorf("odontogram: %d: %w", t.Number, ErrToothNotFound)
		}
		if out.teeth[i].Number != 0 {
			return fmt.Errorf("odontogram: duplicate tooth %d", t.Number)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("odontogram: tooth %d: %w", t.Number, err)
		}
		t.ID = ToothID(t.Number)
		t.Quadrant, _ = QuadrantOf(t.Number)
		t.SetGeneralStatus(t.Status)
		out.teeth[i] = t
	}
	*o = out
	return nil
}

// ToothTreatment is a treatment together with the tooth it belongs to.
type ToothTreatment struct {
	Treatment
	ToothID     string `json:"tooth_id"`
	ToothNumber int    `json:"tooth_number"`
}

// Treatments flattens the treatment plans of every tooth in FDI order.
func (o Odontogram) Treatments() []ToothTreatment {
	var out []ToothTreatment
	for i := range o.teeth {
		for _, tr := range o.teeth[i].Treatments {
			out = append(out, ToothTreatment{Treatment: tr.Clone(), ToothID: o.teeth[i].ID, ToothNumber: o.teeth[i].Number})
		}
	}
	return out
}

// ActiveTreatments returns planned and executed treatments, earliest planned
// date first. Treatments without a planned date sort first.
func (o Odontogram) ActiveTreatments() []ToothTreatment {
	var out []ToothTreatment
	for _, tt := range o.Treatments() {
		if tt.Status == TreatmentPlanned || tt.Status == TreatmentExecuted {
			out = append(out, tt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := dateOrZero(out[i].PlannedDate), dateOrZero(out[j].PlannedDate)
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ConcludedTreatments returns concluded treatments, latest first.
func (o Odontogram) ConcludedTreatments() []ToothTreatment {
	var out []ToothTreatment
	for _, tt := range o.Treatments() {
		if tt.Status == TreatmentConcluded {
			out = append(out, tt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := dateOrZero(out[i].ConcludedDate), dateOrZero(out[j].ConcludedDate)
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
