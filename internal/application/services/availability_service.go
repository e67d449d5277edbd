package services

import (
	"context"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
)

// AvailabilityService expands schedule templates into concrete per-date
// slots with live booking counts. Slots are computed fresh on every query
// and never cached: the booked count must reflect the latest commits.
type AvailabilityService struct {
	schedules    repositories.ScheduleRepository
	appointments repositories.AppointmentRepository
	directory    providers.DirectoryProvider
}

// NewAvailabilityService creates a new availability resolver
func NewAvailabilityService(
	schedules repositories.ScheduleRepository,
	appointments repositories.AppointmentRepository,
	directory providers.DirectoryProvider,
) *AvailabilityService {
	return &AvailabilityService{
		schedules:    schedules,
		appointments: appointments,
		directory:    directory,
	}
}

// Resolve returns, per doctor of the specialty, the slots derived from
// templates matching the date's weekday. Doctors with a matching template
// are included even when every slot is full; a date nobody works on yields
// an empty list, not an error. Past dates resolve normally; only booking
// enforces the date floor.
func (s *AvailabilityService) Resolve(ctx context.Context, specialtyID string, date entities.CivilDate) ([]*entities.DoctorAvailability, error) {
	doctors, err := s.directory.ListDoctorsBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return []*entities.DoctorAvailability{}, nil
	}

	doctorIDs := make([]string, 0, len(doctors))
	doctorsByID := make(map[string]*entities.Doctor, len(doctors))
	for _, doctor := range doctors {
		doctorIDs = append(doctorIDs, doctor.ID)
		doctorsByID[doctor.ID] = doctor
	}

	templates, err := s.schedules.ListByDoctorsAndWeekday(ctx, doctorIDs, date.Weekday())
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return []*entities.DoctorAvailability{}, nil
	}

	scheduleIDs := make([]string, 0, len(templates))
	for _, template := range templates {
		scheduleIDs = append(scheduleIDs, template.ID)
	}

	counts, err := s.appointments.CountBookedBySchedule(ctx, scheduleIDs, date)
	if err != nil {
		return nil, err
	}

	// Templates arrive ordered by (doctor, start time); grouping preserves
	// the chronological slot order within each doctor.
	byDoctor := make(map[string]*entities.DoctorAvailability)
	result := make([]*entities.DoctorAvailability, 0, len(doctors))
	for _, template := range templates {
		availability, ok := byDoctor[template.DoctorID]
		if !ok {
			availability = &entities.DoctorAvailability{
				Doctor: doctorsByID[template.DoctorID],
			}
			byDoctor[template.DoctorID] = availability
			result = append(result, availability)
		}
		availability.Slots = append(availability.Slots, entities.NewSlot(template, date, counts[template.ID]))
	}

	return result, nil
}
