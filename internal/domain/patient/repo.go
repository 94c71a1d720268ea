package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/domain/odontogram"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetForUpdate reads the patient and locks the row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	UpdateOdontogram(ctx context.Context, id uuid.UUID, o odontogram.Odontogram) error
	UpdateSection(ctx context.Context, id uuid.UUID, s Section, r Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error)
}
