package patient

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/domain/odontogram"
)

var ErrNotFound = errors.New("patient not found")

// Section names a clinical record form stored alongside the patient.
type Section string

const (
	SectionAnamnesis Section = "anamnesis"
	SectionExtraoral Section = "extraoral"
	SectionIntraoral Section = "intraoral"
)

var validSections = map[Section]bool{
	SectionAnamnesis: true,
	SectionExtraoral: true,
	SectionIntraoral: true,
}

// Record is the free-form content of a clinical record section.
type Record map[string]interface{}

// Patient maps to the patient table. The odontogram is owned by the patient
// and stored with it.
type Patient struct {
	ID            uuid.UUID             `db:"id" json:"id"`
	Name          string                `db:"name" json:"name"`
	Address       *string               `db:"address" json:"address,omitempty"`
	Phone         *string               `db:"phone" json:"phone,omitempty"`
	Email         *string               `db:"email" json:"email,omitempty"`
	CPF           *string               `db:"cpf" json:"cpf,omitempty"`
	BirthDate     *time.Time            `db:"birth_date" json:"birth_date,omitempty"`
	Odontogram    odontogram.Odontogram `db:"odontogram" json:"odontogram"`
	Anamnesis     Record                `db:"anamnesis" json:"anamnesis,omitempty"`
	ExtraoralExam Record                `db:"extraoral_exam" json:"extraoral_exam,omitempty"`
	IntraoralExam Record                `db:"intraoral_exam" json:"intraoral_exam,omitempty"`
	VersionID     int                   `db:"version_id" json:"version_id"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time             `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (p *Patient) GetVersionID() int { return p.VersionID }

// SetVersionID sets the current version.
func (p *Patient) SetVersionID(v int) { p.VersionID = v }

// Section returns the record stored under s.
func (p *Patient) Section(s Section) Record {
	switch s {
	case SectionAnamnesis:
		return p.Anamnesis
	case SectionExtraoral:
		return p.ExtraoralExam
	case SectionIntraoral:
		return p.IntraoralExam
	}
	return nil
}

// Summary is the list view of a patient.
type Summary struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *Patient) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Phone: p.Phone, Email: p.Email, BirthDate: p.BirthDate, UpdatedAt: p.UpdatedAt}
}
