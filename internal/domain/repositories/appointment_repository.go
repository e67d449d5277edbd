package repositories

import (
	"context"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment storage. The
// booking service is the sole writer.
type AppointmentRepository interface {
	// CreateWithinCapacity inserts the appointment only if the number of
	// non-cancelled appointments for its (schedule, date) pair is strictly
	// below maxCapacity at the instant of commit. The count and the insert
	// are one atomic unit with respect to concurrent callers targeting the
	// same pair: of N+1 simultaneous calls into a capacity-N slot exactly N
	// succeed and the rest fail with a SLOT_FULL conflict.
	CreateWithinCapacity(ctx context.Context, appointment *entities.Appointment, maxCapacity int) error

	// GetByID retrieves an appointment by id
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// UpdateStatus moves an appointment from one status to another. The
	// update applies only if the appointment is still in the expected
	// status, so two racing transitions cannot both win.
	UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error

	// CountBooked counts non-cancelled appointments for one slot
	CountBooked(ctx context.Context, scheduleID string, date entities.CivilDate) (int, error)

	// CountBookedBySchedule counts non-cancelled appointments on a date for
	// each of the given schedules in a single query
	CountBookedBySchedule(ctx context.Context, scheduleIDs []string, date entities.CivilDate) (map[string]int, error)

	// ListByPatient retrieves a patient's appointments, most recent first
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByDoctorAndDate retrieves a doctor's appointments on one date
	ListByDoctorAndDate(ctx context.Context, doctorID string, date entities.CivilDate) ([]*entities.Appointment, error)
}

// AppointmentFilter narrows appointment listings
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	Limit  int
	Offset int
}
