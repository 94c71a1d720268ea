package odontogram

// StatusKind is the general condition of a tooth position.
type StatusKind string

const (
	StatusPresent      StatusKind = "present"
	StatusExtracted    StatusKind = "extracted"
	StatusAgenesis     StatusKind = "agenesis"
	StatusUnerupted    StatusKind = "unerupted"
	StatusResidualRoot StatusKind = "residual_root"
	StatusDeciduous    StatusKind = "deciduous"
)

var statusLabels = map[StatusKind]string{
	StatusPresent:      "Presente",
	StatusExtracted:    "Extraído (X)",
	StatusAgenesis:     "Ausente - Agenesia (AG)",
	StatusUnerupted:    "Não Erupcionado/Incluso (NE)",
	StatusResidualRoot: "Raiz Residual (RR)",
	StatusDeciduous:    "Decíduo (D)",
}

// Label returns the display label of the status.
func (k StatusKind) Label() string { return statusLabels[k] }

// Valid reports whether k is one of the known statuses.
func (k StatusKind) Valid() bool {
	_, ok := statusLabels[k]
	return ok
}

// GeneralStatus is the general status of a tooth. ReplacedByProsthesis only
// applies to StatusExtracted and UneruptedPosition only to StatusUnerupted.
type GeneralStatus struct {
	Kind                 StatusKind `json:"kind"`
	ReplacedByProsthesis *bool      `json:"replaced_by_prosthesis,omitempty"`
	UneruptedPosition    *string    `json:"unerupted_position,omitempty"`
}

// Present returns the default status.
func Present() GeneralStatus { return GeneralStatus{Kind: StatusPresent} }

// Extracted returns an extracted status.
func Extracted(replacedByProsthesis bool) GeneralStatus {
	return GeneralStatus{Kind: StatusExtracted, ReplacedByProsthesis: &replacedByProsthesis}
}

// Unerupted returns an unerupted/impacted status with a position note.
func Unerupted(position string) GeneralStatus {
	return GeneralStatus{Kind: StatusUnerupted, UneruptedPosition: &position}
}

// normalized drops the fields that do not belong to s.Kind.
func (s GeneralStatus) normalized() GeneralStatus {
	out := GeneralStatus{Kind: s.Kind}
	if s.Kind == StatusExtracted && s.ReplacedByProsthesis != nil {
		v := *s.ReplacedByProsthesis
		out.ReplacedByProsthesis = &v
	}
	if s.Kind == StatusUnerupted && s.UneruptedPosition != nil {
		v := *s.UneruptedPosition
		out.UneruptedPosition = &v
	}
	return out
}

func (s GeneralStatus) clone() GeneralStatus {
	if s.ReplacedByProsthesis != nil {
		v := *s.ReplacedByProsthesis
		s.ReplacedByProsthesis = &v
	}
	if s.UneruptedPosition != nil {
		v := *s.UneruptedPosition
		s.UneruptedPosition = &v
	}
	return s
}
