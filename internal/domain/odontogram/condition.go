package odontogram

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ConditionKind tags a pathological condition record.
type ConditionKind string

const (
	ConditionCaries              ConditionKind = "caries"
	ConditionPeriapicalLesion    ConditionKind = "periapical_lesion"
	ConditionPeriodontal         ConditionKind = "periodontal"
	ConditionFracture            ConditionKind = "fracture"
	ConditionWear                ConditionKind = "wear"
	ConditionStain               ConditionKind = "stain"
	ConditionGingivalHyperplasia ConditionKind = "gingival_hyperplasia"
	ConditionGingivalRecession   ConditionKind = "gingival_recession"
	ConditionMobility            ConditionKind = "mobility"
	ConditionAnkylosis           ConditionKind = "ankylosis"
	ConditionEctopicEruption     ConditionKind = "ectopic_eruption"
	ConditionImpaction           ConditionKind = "impaction"
	ConditionRootRetention       ConditionKind = "root_retention"
	ConditionFistula             ConditionKind = "fistula"
	ConditionAbscess             ConditionKind = "abscess"
	ConditionGranuloma           ConditionKind = "granuloma"
	ConditionCyst                ConditionKind = "cyst"
	ConditionTMJHypermobility    ConditionKind = "tmj_hypermobility"
	ConditionTMJDysfunction      ConditionKind = "tmj_dysfunction"
	ConditionOther               ConditionKind = "other"
)

// ConditionDetail is the kind-specific payload of a Condition. The set of
// implementations is closed to this package.
type ConditionDetail interface {
	ConditionKind() ConditionKind
	cloneCondition() ConditionDetail
}

type conditionSpec struct {
	label  string
	decode func(json.RawMessage) (ConditionDetail, error)
}

func conditionDecoder[T ConditionDetail](raw json.RawMessage) (ConditionDetail, error) {
	d, err := decodeStrict[T](raw)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var conditionOrder = []ConditionKind{
	ConditionCaries, ConditionPeriapicalLesion, ConditionPeriodontal, ConditionFracture,
	ConditionWear, ConditionStain, ConditionGingivalHyperplasia, ConditionGingivalRecession,
	ConditionMobility, ConditionAnkylosis, ConditionEctopicEruption, ConditionImpaction,
	ConditionRootRetention, ConditionFistula, ConditionAbscess, ConditionGranuloma,
	ConditionCyst, ConditionTMJHypermobility, ConditionTMJDysfunction, ConditionOther,
}

var conditionRegistry = map[ConditionKind]conditionSpec{
	ConditionCaries:              {"Cárie", conditionDecoder[CariesDetail]},
	ConditionPeriapicalLesion:    {"Lesão Periapical", conditionDecoder[PeriapicalLesionDetail]},
	ConditionPeriodontal:         {"Problema Periodontal", conditionDecoder[PeriodontalDetail]},
	ConditionFracture:            {"Fratura Dentária", conditionDecoder[FractureDetail]},
	ConditionWear:                {"Desgaste Dentário", conditionDecoder[WearDetail]},
	ConditionStain:               {"Mancha Dentária", conditionDecoder[StainDetail]},
	ConditionGingivalHyperplasia: {"Hiperplasia Gengival", conditionDecoder[GingivalHyperplasiaDetail]},
	ConditionGingivalRecession:   {"Recessão Gengival", conditionDecoder[GingivalRecessionDetail]},
	ConditionMobility:            {"Mobilidade Dentária", conditionDecoder[MobilityDetail]},
	ConditionAnkylosis:           {"Anquilose", conditionDecoder[AnkylosisDetail]},
	ConditionEctopicEruption:     {"Erupção Ectópica", conditionDecoder[EctopicEruptionDetail]},
	ConditionImpaction:           {"Impactação", conditionDecoder[ImpactionDetail]},
	ConditionRootRetention:       {"Retenção de Raiz", conditionDecoder[RootRetentionDetail]},
	ConditionFistula:             {"Fístula", conditionDecoder[FistulaDetail]},
	ConditionAbscess:             {"Abscesso", conditionDecoder[AbscessDetail]},
	ConditionGranuloma:           {"Granuloma", conditionDecoder[GranulomaDetail]},
	ConditionCyst:                {"Cisto", conditionDecoder[CystDetail]},
	ConditionTMJHypermobility:    {"Hipermobilidade ATM", conditionDecoder[TMJHypermobilityDetail]},
	ConditionTMJDysfunction:      {"Disfunção ATM", conditionDecoder[TMJDysfunctionDetail]},
	ConditionOther:               {"Outra Condição", conditionDecoder[OtherConditionDetail]},
}

// ConditionKinds returns every condition kind in display order.
func ConditionKinds() []ConditionKind {
	out := make([]ConditionKind, len(conditionOrder))
	copy(out, conditionOrder)
	return out
}

// Label returns the display label of the kind.
func (k ConditionKind) Label() string { return conditionRegistry[k].label }

// Valid reports whether k is a registered condition kind.
func (k ConditionKind) Valid() bool {
	_, ok := conditionRegistry[k]
	return ok
}

// Condition is one pathological finding on a tooth. It always carries exactly
// one detail payload, whose type determines Kind.
type Condition struct {
	ID     uuid.UUID
	Notes  string
	detail ConditionDetail
}

// NewCondition builds a condition from its kind-specific payload.
func NewCondition(detail ConditionDetail, notes string) (Condition, error) {
	if detail == nil {
		return Condition{}, fmt.Errorf("%w: detail is required", ErrInvalidCondition)
	}
	return Condition{ID: uuid.New(), Notes: notes, detail: detail.cloneCondition()}, nil
}

// NewConditionOfKind builds a condition of kind with an empty payload.
func NewConditionOfKind(kind ConditionKind, notes string) (Condition, error) {
	entry, ok := conditionRegistry[kind]
	if !ok {
		return Condition{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCondition, kind)
	}
	d, err := entry.decode(nil)
	if err != nil {
		return Condition{}, err
	}
	return NewCondition(d, notes)
}

// Kind returns the tag of the condition, or "" for the zero value.
func (c Condition) Kind() ConditionKind {
	if c.detail == nil {
		return ""
	}
	return c.detail.ConditionKind()
}

// Detail returns a copy of the payload.
func (c Condition) Detail() ConditionDetail {
	if c.detail == nil {
		return nil
	}
	return c.detail.cloneCondition()
}

// WithDetail returns c with its payload, and therefore its kind, replaced.
func (c Condition) WithDetail(detail ConditionDetail) (Condition, error) {
	if detail == nil {
		return c, fmt.Errorf("%w: detail is required", ErrInvalidCondition)
	}
	c.detail = detail.cloneCondition()
	return c, nil
}

// Clone returns a deep copy.
func (c Condition) Clone() Condition {
	c.detail = c.Detail()
	return c
}

// ConditionDetailAs returns the payload of c as a T when c is of T's kind.
func ConditionDetailAs[T ConditionDetail](c Condition) (T, bool) {
	d, ok := c.Detail().(T)
	return d, ok
}

func (c Condition) validate() error {
	if c.detail == nil {
		return fmt.Errorf("%w: detail is required", ErrInvalidCondition)
	}
	if f, ok := c.detail.(surfaced); ok && !validFaces(f.surfaces()) {
		return fmt.Errorf("%w: unknown face", ErrInvalidCondition)
	}
	return nil
}

type conditionJSON struct {
	ID     uuid.UUID       `json:"id"`
	Kind   ConditionKind   `json:"kind"`
	Detail json.RawMessage `json:"detail,omitempty"`
	Notes  string          `json:"notes,omitempty"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	if c.detail == nil {
		return nil, fmt.Errorf("%w: detail is required", ErrInvalidCondition)
	}
	raw, err := json.Marshal(c.detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionJSON{ID: c.ID, Kind: c.Kind(), Detail: raw, Notes: c.Notes})
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var w conditionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	entry, ok := conditionRegistry[w.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCondition, w.Kind)
	}
	d, err := entry.decode(w.Detail)
	if err != nil {
		return fmt.Errorf("%w: %s detail: %v", ErrInvalidCondition, w.Kind, err)
	}
	*c = Condition{ID: w.ID, Notes: w.Notes, detail: d}
	return nil
}

// surfaced is implemented by payloads that record affected faces.
type surfaced interface {
	surfaces() []Face
}

// Activity of a carious lesion.
type Activity string

const (
	ActivityActive      Activity = "active"
	ActivityInactive    Activity = "inactive"
	ActivityUnspecified Activity = "unspecified"
)

type CariesDetail struct {
	Faces     []Face   `json:"faces"`
	Depth     string   `json:"depth,omitempty"`
	Activity  Activity `json:"activity,omitempty"`
	Recurrent bool     `json:"recurrent,omitempty"`
}

func (d CariesDetail) ConditionKind() ConditionKind { return ConditionCaries }
func (d CariesDetail) surfaces() []Face             { return d.Faces }
func (d CariesDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type PeriapicalLesionDetail struct {
	LesionType         string `json:"lesion_type,omitempty"`
	RadiographicAspect string `json:"radiographic_aspect,omitempty"`
	Symptoms           string `json:"symptoms,omitempty"`
}

func (d PeriapicalLesionDetail) ConditionKind() ConditionKind   { return ConditionPeriapicalLesion }
func (d PeriapicalLesionDetail) cloneCondition() ConditionDetail { return d }

type PeriodontalDetail struct {
	Mobility             string `json:"mobility,omitempty"`
	RecessionMM          string `json:"recession_mm,omitempty"`
	BleedingOnProbing    bool   `json:"bleeding_on_probing,omitempty"`
	Suppuration          bool   `json:"suppuration,omitempty"`
	FurcationInvolvement string `json:"furcation_involvement,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

func (d PeriodontalDetail) ConditionKind() ConditionKind   { return ConditionPeriodontal }
func (d PeriodontalDetail) cloneCondition() ConditionDetail { return d }

type FractureDetail struct {
	FractureType string `json:"fracture_type,omitempty"`
	Faces        []Face `json:"faces"`
	Extent       string `json:"extent,omitempty"`
}

func (d FractureDetail) ConditionKind() ConditionKind { return ConditionFracture }
func (d FractureDetail) surfaces() []Face             { return d.Faces }
func (d FractureDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type WearDetail struct {
	WearType string `json:"wear_type,omitempty"`
	Faces    []Face `json:"faces"`
	Severity string `json:"severity,omitempty"`
}

func (d WearDetail) ConditionKind() ConditionKind { return ConditionWear }
func (d WearDetail) surfaces() []Face             { return d.Faces }
func (d WearDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type StainDetail struct {
	StainType string `json:"stain_type,omitempty"`
	Color     string `json:"color,omitempty"`
	Faces     []Face `json:"faces"`
	Cause     string `json:"cause,omitempty"`
}

func (d StainDetail) ConditionKind() ConditionKind { return ConditionStain }
func (d StainDetail) surfaces() []Face             { return d.Faces }
func (d StainDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type GingivalHyperplasiaDetail struct {
	Faces    []Face `json:"faces"`
	Cause    string `json:"cause,omitempty"`
	Severity string `json:"severity,omitempty"`
}

func (d GingivalHyperplasiaDetail) ConditionKind() ConditionKind { return ConditionGingivalHyperplasia }
func (d GingivalHyperplasiaDetail) surfaces() []Face             { return d.Faces }
func (d GingivalHyperplasiaDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type GingivalRecessionDetail struct {
	Faces   []Face `json:"faces"`
	DepthMM string `json:"depth_mm,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

func (d GingivalRecessionDetail) ConditionKind() ConditionKind { return ConditionGingivalRecession }
func (d GingivalRecessionDetail) surfaces() []Face             { return d.Faces }
func (d GingivalRecessionDetail) cloneCondition() ConditionDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type MobilityDetail struct {
	Grade string `json:"grade,omitempty"`
	Cause string `json:"cause,omitempty"`
}

func (d MobilityDetail) ConditionKind() ConditionKind   { return ConditionMobility }
func (d MobilityDetail) cloneCondition() ConditionDetail { return d }

type AnkylosisDetail struct {
	Grade string `json:"grade,omitempty"`
	Notes string `json:"notes,omitempty"`
}

func (d AnkylosisDetail) ConditionKind() ConditionKind   { return ConditionAnkylosis }
func (d AnkylosisDetail) cloneCondition() ConditionDetail { return d }

type EctopicEruptionDetail struct {
	Position     string `json:"position,omitempty"`
	Interference string `json:"interference,omitempty"`
}

func (d EctopicEruptionDetail) ConditionKind() ConditionKind   { return ConditionEctopicEruption }
func (d EctopicEruptionDetail) cloneCondition() ConditionDetail { return d }

type ImpactionDetail struct {
	Position string `json:"position,omitempty"`
	Depth    string `json:"depth,omitempty"`
}

func (d ImpactionDetail) ConditionKind() ConditionKind   { return ConditionImpaction }
func (d ImpactionDetail) cloneCondition() ConditionDetail { return d }

type RootRetentionDetail struct {
	Size     string `json:"size,omitempty"`
	Position string `json:"position,omitempty"`
}

func (d RootRetentionDetail) ConditionKind() ConditionKind   { return ConditionRootRetention }
func (d RootRetentionDetail) cloneCondition() ConditionDetail { return d }

type FistulaDetail struct {
	Location string `json:"location,omitempty"`
	Drainage string `json:"drainage,omitempty"`
}

func (d FistulaDetail) ConditionKind() ConditionKind   { return ConditionFistula }
func (d FistulaDetail) cloneCondition() ConditionDetail { return d }

type AbscessDetail struct {
	Location string `json:"location,omitempty"`
	Size     string `json:"size,omitempty"`
	Drainage string `json:"drainage,omitempty"`
}

func (d AbscessDetail) ConditionKind() ConditionKind   { return ConditionAbscess }
func (d AbscessDetail) cloneCondition() ConditionDetail { return d }

type GranulomaDetail struct {
	Size               string `json:"size,omitempty"`
	RadiographicAspect string `json:"radiographic_aspect,omitempty"`
}

func (d GranulomaDetail) ConditionKind() ConditionKind   { return ConditionGranuloma }
func (d GranulomaDetail) cloneCondition() ConditionDetail { return d }

type CystDetail struct {
	CystType           string `json:"cyst_type,omitempty"`
	Size               string `json:"size,omitempty"`
	RadiographicAspect string `json:"radiographic_aspect,omitempty"`
}

func (d CystDetail) ConditionKind() ConditionKind   { return ConditionCyst }
func (d CystDetail) cloneCondition() ConditionDetail { return d }

type TMJHypermobilityDetail struct {
	Side     string `json:"side,omitempty"`
	Symptoms string `json:"symptoms,omitempty"`
}

func (d TMJHypermobilityDetail) ConditionKind() ConditionKind   { return ConditionTMJHypermobility }
func (d TMJHypermobilityDetail) cloneCondition() ConditionDetail { return d }

type TMJDysfunctionDetail struct {
	DysfunctionType string `json:"dysfunction_type,omitempty"`
	Side            string `json:"side,omitempty"`
	Symptoms        string `json:"symptoms,omitempty"`
}

func (d TMJDysfunctionDetail) ConditionKind() ConditionKind   { return ConditionTMJDysfunction }
func (d TMJDysfunctionDetail) cloneCondition() ConditionDetail { return d }

type OtherConditionDetail struct {
	Description    string `json:"description,omitempty"`
	Classification string `json:"classification,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (d OtherConditionDetail) ConditionKind() ConditionKind   { return ConditionOther }
func (d OtherConditionDetail) cloneCondition() ConditionDetail { return d }
