package odontogram

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RestorationKind tags an existing restoration or prosthesis record.
type RestorationKind string

const (
	RestorationFilling                 RestorationKind = "restoration"
	RestorationCrown                   RestorationKind = "crown"
	RestorationRootCanal               RestorationKind = "root_canal"
	RestorationImplant                 RestorationKind = "implant"
	RestorationSealant                 RestorationKind = "sealant"
	RestorationVeneer                  RestorationKind = "veneer"
	RestorationOnlayInlay              RestorationKind = "onlay_inlay"
	RestorationPostCore                RestorationKind = "post_core"
	RestorationRemovablePartialDenture RestorationKind = "removable_partial_denture"
	RestorationCompleteDenture         RestorationKind = "complete_denture"
	RestorationFixedProsthesis         RestorationKind = "fixed_prosthesis"
	RestorationOrthodonticAppliance    RestorationKind = "orthodontic_appliance"
	RestorationSpaceMaintainer         RestorationKind = "space_maintainer"
	RestorationOrthodonticRetainer     RestorationKind = "orthodontic_retainer"
	RestorationOther                   RestorationKind = "other"
)

// RestorationDetail is the kind-specific payload of a Restoration. The set of
// implementations is closed to this package.
type RestorationDetail interface {
	RestorationKind() RestorationKind
	cloneRestoration() RestorationDetail
}

type restorationSpec struct {
	label  string
	decode func(json.RawMessage) (RestorationDetail, error)
}

func restorationDecoder[T RestorationDetail](raw json.RawMessage) (RestorationDetail, error) {
	d, err := decodeStrict[T](raw)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var restorationOrder = []RestorationKind{
	RestorationFilling, RestorationCrown, RestorationRootCanal, RestorationImplant,
	RestorationSealant, RestorationVeneer, RestorationOnlayInlay, RestorationPostCore,
	RestorationRemovablePartialDenture, RestorationCompleteDenture, RestorationFixedProsthesis,
	RestorationOrthodonticAppliance, RestorationSpaceMaintainer, RestorationOrthodonticRetainer,
	RestorationOther,
}

var restorationRegistry = map[RestorationKind]restorationSpec{
	RestorationFilling:                 {"Restauração", restorationDecoder[FillingDetail]},
	RestorationCrown:                   {"Coroa Protética", restorationDecoder[CrownDetail]},
	RestorationRootCanal:               {"Tratamento Endodôntico Existente", restorationDecoder[RootCanalDetail]},
	RestorationImplant:                 {"Implante Dentário com Prótese", restorationDecoder[ImplantDetail]},
	RestorationSealant:                 {"Selante Oclusal", restorationDecoder[SealantDetail]},
	RestorationVeneer:                  {"Faceta Laminada", restorationDecoder[VeneerDetail]},
	RestorationOnlayInlay:              {"Onlay/Inlay", restorationDecoder[OnlayInlayDetail]},
	RestorationPostCore:                {"Pino/Pilar Intrarradicular", restorationDecoder[PostCoreDetail]},
	RestorationRemovablePartialDenture: {"Prótese Parcial Removível", restorationDecoder[RemovablePartialDentureDetail]},
	RestorationCompleteDenture:         {"Prótese Total", restorationDecoder[CompleteDentureDetail]},
	RestorationFixedProsthesis:         {"Prótese Fixa", restorationDecoder[FixedProsthesisDetail]},
	RestorationOrthodonticAppliance:    {"Aparelho Ortodôntico", restorationDecoder[OrthodonticApplianceDetail]},
	RestorationSpaceMaintainer:         {"Mantenedor de Espaço", restorationDecoder[SpaceMaintainerDetail]},
	RestorationOrthodonticRetainer:     {"Contenção Ortodôntica", restorationDecoder[OrthodonticRetainerDetail]},
	RestorationOther:                   {"Outro Tratamento", restorationDecoder[OtherRestorationDetail]},
}

// RestorationKinds returns every restoration kind in display order.
func RestorationKinds() []RestorationKind {
	out := make([]RestorationKind, len(restorationOrder))
	copy(out, restorationOrder)
	return out
}

// Label returns the display label of the kind.
func (k RestorationKind) Label() string { return restorationRegistry[k].label }

// Valid reports whether k is a registered restoration kind.
func (k RestorationKind) Valid() bool {
	_, ok := restorationRegistry[k]
	return ok
}

// Restoration is an existing restoration or prosthesis on a tooth. It always
// carries exactly one detail payload, whose type determines Kind.
type Restoration struct {
	ID     uuid.UUID
	Notes  string
	detail RestorationDetail
}

// NewRestoration builds a restoration from its kind-specific payload.
func NewRestoration(detail RestorationDetail, notes string) (Restoration, error) {
	if detail == nil {
		return Restoration{}, fmt.Errorf("%w: detail is required", ErrInvalidRestoration)
	}
	return Restoration{ID: uuid.New(), Notes: notes, detail: detail.cloneRestoration()}, nil
}

// NewRestorationOfKind builds a restoration of kind with an empty payload.
func NewRestorationOfKind(kind RestorationKind, notes string) (Restoration, error) {
	entry, ok := restorationRegistry[kind]
	if !ok {
		return Restoration{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRestoration, kind)
	}
	d, err := entry.decode(nil)
	if err != nil {
		return Restoration{}, err
	}
	return NewRestoration(d, notes)
}

// Kind returns the tag of the restoration, or "" for the zero value.
func (r Restoration) Kind() RestorationKind {
	if r.detail == nil {
		return ""
	}
	return r.detail.RestorationKind()
}

// Detail returns a copy of the payload.
func (r Restoration) Detail() RestorationDetail {
	if r.detail == nil {
		return nil
	}
	return r.detail.cloneRestoration()
}

// WithDetail returns r with its payload, and therefore its kind, replaced.
func (r Restoration) WithDetail(detail RestorationDetail) (Restoration, error) {
	if detail == nil {
		return r, fmt.Errorf("%w: detail is required", ErrInvalidRestoration)
	}
	r.detail = detail.cloneRestoration()
	return r, nil
}

// Clone returns a deep copy.
func (r Restoration) Clone() Restoration {
	r.detail = r.Detail()
	return r
}

// RestorationDetailAs returns the payload of r as a T when r is of T's kind.
func RestorationDetailAs[T RestorationDetail](r Restoration) (T, bool) {
	d, ok := r.Detail().(T)
	return d, ok
}

func (r Restoration) validate() error {
	if r.detail == nil {
		return fmt.Errorf("%w: detail is required", ErrInvalidRestoration)
	}
	if f, ok := r.detail.(surfaced); ok && !validFaces(f.surfaces()) {
		return fmt.Errorf("%w: unknown face", ErrInvalidRestoration)
	}
	return nil
}

type restorationJSON struct {
	ID     uuid.UUID       `json:"id"`
	Kind   RestorationKind `json:"kind"`
	Detail json.RawMessage `json:"detail,omitempty"`
	Notes  string          `json:"notes,omitempty"`
}

func (r Restoration) MarshalJSON() ([]byte, error) {
	if r.detail == nil {
		return nil, fmt.Errorf("%w: detail is required", ErrInvalidRestoration)
	}
	raw, err := json.Marshal(r.detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(restorationJSON{ID: r.ID, Kind: r.Kind(), Detail: raw, Notes: r.Notes})
}

func (r *Restoration) UnmarshalJSON(data []byte) error {
	var w restorationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	entry, ok := restorationRegistry[w.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRestoration, w.Kind)
	}
	d, err := entry.decode(w.Detail)
	if err != nil {
		return fmt.Errorf("%w: %s detail: %v", ErrInvalidRestoration, w.Kind, err)
	}
	*r = Restoration{ID: w.ID, Notes: w.Notes, detail: d}
	return nil
}

type FillingDetail struct {
	Material  string `json:"material,omitempty"`
	Faces     []Face `json:"faces"`
	Condition string `json:"condition,omitempty"`
}

func (d FillingDetail) RestorationKind() RestorationKind { return RestorationFilling }
func (d FillingDetail) surfaces() []Face                 { return d.Faces }
func (d FillingDetail) cloneRestoration() RestorationDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type CrownDetail struct {
	Material  string `json:"material,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (d CrownDetail) RestorationKind() RestorationKind     { return RestorationCrown }
func (d CrownDetail) cloneRestoration() RestorationDetail { return d }

// RootCanalStatus of an existing endodontic treatment.
type RootCanalStatus string

const (
	RootCanalConcluded        RootCanalStatus = "concluded"
	RootCanalIncomplete       RootCanalStatus = "incomplete"
	RootCanalNeedsRetreatment RootCanalStatus = "needs_retreatment"
)

type RootCanalDetail struct {
	Status      RootCanalStatus `json:"status,omitempty"`
	PerformedOn *time.Time      `json:"performed_on,omitempty"`
}

func (d RootCanalDetail) RestorationKind() RestorationKind { return RestorationRootCanal }
func (d RootCanalDetail) cloneRestoration() RestorationDetail {
	d.PerformedOn = cloneTime(d.PerformedOn)
	return d
}

type ImplantDetail struct {
	ProsthesisType string     `json:"prosthesis_type,omitempty"`
	InstalledOn    *time.Time `json:"installed_on,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

func (d ImplantDetail) RestorationKind() RestorationKind { return RestorationImplant }
func (d ImplantDetail) cloneRestoration() RestorationDetail {
	d.InstalledOn = cloneTime(d.InstalledOn)
	return d
}

type SealantDetail struct {
	Occlusal  bool   `json:"occlusal,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (d SealantDetail) RestorationKind() RestorationKind     { return RestorationSealant }
func (d SealantDetail) cloneRestoration() RestorationDetail { return d }

type VeneerDetail struct {
	Material  string `json:"material,omitempty"`
	Faces     []Face `json:"faces"`
	Condition string `json:"condition,omitempty"`
}

func (d VeneerDetail) RestorationKind() RestorationKind { return RestorationVeneer }
func (d VeneerDetail) surfaces() []Face                 { return d.Faces }
func (d VeneerDetail) cloneRestoration() RestorationDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type OnlayInlayDetail struct {
	InlayType string `json:"inlay_type,omitempty"`
	Material  string `json:"material,omitempty"`
	Faces     []Face `json:"faces"`
	Condition string `json:"condition,omitempty"`
}

func (d OnlayInlayDetail) RestorationKind() RestorationKind { return RestorationOnlayInlay }
func (d OnlayInlayDetail) surfaces() []Face                 { return d.Faces }
func (d OnlayInlayDetail) cloneRestoration() RestorationDetail {
	d.Faces = cloneFaces(d.Faces)
	return d
}

type PostCoreDetail struct {
	Material  string `json:"material,omitempty"`
	PostType  string `json:"post_type,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (d PostCoreDetail) RestorationKind() RestorationKind     { return RestorationPostCore }
func (d PostCoreDetail) cloneRestoration() RestorationDetail { return d }

type RemovablePartialDentureDetail struct {
	DentureType string `json:"denture_type,omitempty"`
	Elements    string `json:"elements,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

func (d RemovablePartialDentureDetail) RestorationKind() RestorationKind {
	return RestorationRemovablePartialDenture
}
func (d RemovablePartialDentureDetail) cloneRestoration() RestorationDetail { return d }

type CompleteDentureDetail struct {
	Material  string `json:"material,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (d CompleteDentureDetail) RestorationKind() RestorationKind     { return RestorationCompleteDenture }
func (d CompleteDentureDetail) cloneRestoration() RestorationDetail { return d }

type FixedProsthesisDetail struct {
	ProsthesisType string `json:"prosthesis_type,omitempty"`
	Elements       string `json:"elements,omitempty"`
	Material       string `json:"material,omitempty"`
	Condition      string `json:"condition,omitempty"`
}

func (d FixedProsthesisDetail) RestorationKind() RestorationKind     { return RestorationFixedProsthesis }
func (d FixedProsthesisDetail) cloneRestoration() RestorationDetail { return d }

type OrthodonticApplianceDetail struct {
	ApplianceType string `json:"appliance_type,omitempty"`
	Elements      string `json:"elements,omitempty"`
	Phase         string `json:"phase,omitempty"`
}

func (d OrthodonticApplianceDetail) RestorationKind() RestorationKind {
	return RestorationOrthodonticAppliance
}
func (d OrthodonticApplianceDetail) cloneRestoration() RestorationDetail { return d }

type SpaceMaintainerDetail struct {
	MaintainerType string `json:"maintainer_type,omitempty"`
	Elements       string `json:"elements,omitempty"`
	Condition      string `json:"condition,omitempty"`
}

func (d SpaceMaintainerDetail) RestorationKind() RestorationKind     { return RestorationSpaceMaintainer }
func (d SpaceMaintainerDetail) cloneRestoration() RestorationDetail { return d }

type OrthodonticRetainerDetail struct {
	RetainerType string `json:"retainer_type,omitempty"`
	Elements     string `json:"elements,omitempty"`
	Condition    string `json:"condition,omitempty"`
}

func (d OrthodonticRetainerDetail) RestorationKind() RestorationKind {
	return RestorationOrthodonticRetainer
}
func (d OrthodonticRetainerDetail) cloneRestoration() RestorationDetail { return d }

type OtherRestorationDetail struct {
	Description     string `json:"description,omitempty"`
	RestorationType string `json:"restoration_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (d OtherRestorationDetail) RestorationKind() RestorationKind     { return RestorationOther }
func (d OtherRestorationDetail) cloneRestoration() RestorationDetail { return d }
