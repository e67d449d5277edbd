package directory

import (
	"context"
	"fmt"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// MockDirectoryProvider implements an in-memory directory for development
// and testing.
type MockDirectoryProvider struct {
	doctors     map[string]*entities.Doctor
	rooms       map[string]*entities.Room
	specialties map[string]*entities.Specialty
}

// NewMockDirectoryProvider creates a mock directory pre-loaded with a small
// clinic roster.
func NewMockDirectoryProvider() *MockDirectoryProvider {
	p := &MockDirectoryProvider{
		doctors:     make(map[string]*entities.Doctor),
		rooms:       make(map[string]*entities.Room),
		specialties: make(map[string]*entities.Specialty),
	}

	p.AddSpecialty(&entities.Specialty{ID: "spec-cardio", Name: "Cardiology"})
	p.AddSpecialty(&entities.Specialty{ID: "spec-derm", Name: "Dermatology"})
	p.AddRoom(&entities.Room{ID: "room-1", Name: "Consultation Room 1", Floor: "1"})
	p.AddRoom(&entities.Room{ID: "room-2", Name: "Consultation Room 2", Floor: "1"})
	p.AddDoctor(&entities.Doctor{
		ID:          "doc-7",
		FullName:    "Dr. Amaka Obi",
		SpecialtyID: "spec-cardio",
		Specialty:   "Cardiology",
		Fees: map[entities.AppointmentType]float64{
			entities.AppointmentTypeExamination:  150,
			entities.AppointmentTypeConsultation: 100,
		},
	})
	p.AddDoctor(&entities.Doctor{
		ID:          "doc-8",
		FullName:    "Dr. Tunde Bello",
		SpecialtyID: "spec-cardio",
		Specialty:   "Cardiology",
		Fees: map[entities.AppointmentType]float64{
			entities.AppointmentTypeExamination:  175,
			entities.AppointmentTypeConsultation: 120,
		},
	})

	return p
}

// AddDoctor registers a doctor in the mock directory
func (p *MockDirectoryProvider) AddDoctor(doctor *entities.Doctor) {
	p.doctors[doctor.ID] = doctor
}

// AddRoom registers a room in the mock directory
func (p *MockDirectoryProvider) AddRoom(room *entities.Room) {
	p.rooms[room.ID] = room
}

// AddSpecialty registers a specialty in the mock directory
func (p *MockDirectoryProvider) AddSpecialty(specialty *entities.Specialty) {
	p.specialties[specialty.ID] = specialty
}

// GetDoctor resolves a doctor by id
func (p *MockDirectoryProvider) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	doctor, ok := p.doctors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, fmt.Sprintf("doctor %s not found", id))
	}
	return doctor, nil
}

// ListDoctorsBySpecialty resolves every doctor of a specialty
func (p *MockDirectoryProvider) ListDoctorsBySpecialty(ctx context.Context, specialtyID string) ([]*entities.Doctor, error) {
	var doctors []*entities.Doctor
	for _, doctor := range p.doctors {
		if doctor.SpecialtyID == specialtyID {
			doctors = append(doctors, doctor)
		}
	}
	return doctors, nil
}

// GetRoom resolves a room by id
func (p *MockDirectoryProvider) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	room, ok := p.rooms[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, fmt.Sprintf("room %s not found", id))
	}
	return room, nil
}

// GetSpecialty resolves a specialty by id
func (p *MockDirectoryProvider) GetSpecialty(ctx context.Context, id string) (*entities.Specialty, error) {
	specialty, ok := p.specialties[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, fmt.Sprintf("specialty %s not found", id))
	}
	return specialty, nil
}

var _ providers.DirectoryProvider = (*MockDirectoryProvider)(nil)
