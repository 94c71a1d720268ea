package odontogram

import (
	"fmt"

	"github.com/google/uuid"
)

type AnomalyKind string

const (
	AnomalyPosition AnomalyKind = "position"
	AnomalyShape    AnomalyKind = "shape"
	AnomalyNumber   AnomalyKind = "number"
	AnomalyColor    AnomalyKind = "color"
	AnomalyDiastema AnomalyKind = "diastema"
	AnomalyOther    AnomalyKind = "other"
)

var anomalyLabels = map[AnomalyKind]string{
	AnomalyPosition: "Posição",
	AnomalyShape:    "Forma",
	AnomalyNumber:   "Número",
	AnomalyColor:    "Cor",
	AnomalyDiastema: "Diastema",
	AnomalyOther:    "Outra",
}

func (k AnomalyKind) Label() string { return anomalyLabels[k] }

func (k AnomalyKind) Valid() bool {
	_, ok := anomalyLabels[k]
	return ok
}

// Anomaly is a free-form developmental anomaly note on a tooth.
type Anomaly struct {
	ID          uuid.UUID   `json:"id"`
	Kind        AnomalyKind `json:"kind"`
	Description string      `json:"description"`
}

// NewAnomaly returns an anomaly with a fresh id.
func NewAnomaly(kind AnomalyKind, description string) (Anomaly, error) {
	a := Anomaly{ID: uuid.New(), Kind: kind, Description: description}
	if err := a.validate(); err != nil {
		return Anomaly{}, err
	}
	return a, nil
}

func (a Anomaly) validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAnomaly, a.Kind)
	}
	return nil
}
