package providers

import (
	"context"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// DirectoryProvider resolves doctor, room and specialty identities from the
// identity & directory collaborator. All lookups are read-only and keyed by
// id.
type DirectoryProvider interface {
	// GetDoctor resolves a doctor with their fee schedule
	GetDoctor(ctx context.Context, id string) (*entities.Doctor, error)

	// ListDoctorsBySpecialty resolves every doctor of a specialty
	ListDoctorsBySpecialty(ctx context.Context, specialtyID string) ([]*entities.Doctor, error)

	// GetRoom resolves room metadata
	GetRoom(ctx context.Context, id string) (*entities.Room, error)

	// GetSpecialty resolves a specialty
	GetSpecialty(ctx context.Context, id string) (*entities.Specialty, error)
}
