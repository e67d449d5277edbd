package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/observability"
)

// LifecycleService advances appointments along the forward path of the
// lifecycle: confirm, check in, complete. Cancellation lives on
// BookingService because it frees slot capacity.
type LifecycleService struct {
	appointments repositories.AppointmentRepository
	bus          providers.EventBus
}

func NewLifecycleService(appointments repositories.AppointmentRepository, bus providers.EventBus) *LifecycleService {
	return &LifecycleService{appointments: appointments, bus: bus}
}

// Confirm moves a pending appointment to confirmed
func (s *LifecycleService) Confirm(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.advance(ctx, appointmentID, entities.AppointmentStatusConfirmed, entities.AppointmentEventConfirmed)
}

// CheckIn marks a confirmed appointment as arrived
func (s *LifecycleService) CheckIn(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.advance(ctx, appointmentID, entities.AppointmentStatusCheckedIn, entities.AppointmentEventCheckedIn)
}

// Complete closes out a checked-in appointment
func (s *LifecycleService) Complete(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.advance(ctx, appointmentID, entities.AppointmentStatusCompleted, entities.AppointmentEventCompleted)
}

// GetByID returns a single appointment
func (s *LifecycleService) GetByID(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.appointments.GetByID(ctx, appointmentID)
}

func (s *LifecycleService) advance(ctx context.Context, appointmentID string, target entities.AppointmentStatus, eventType entities.AppointmentEventType) (*entities.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	previous := appointment.Status
	if err := appointment.TransitionTo(target); err != nil {
		return nil, err
	}
	// The update is guarded by the status we read, so a concurrent
	// transition on the same row loses cleanly instead of clobbering.
	if err := s.appointments.UpdateStatus(ctx, appointmentID, previous, target); err != nil {
		return nil, err
	}

	if s.bus != nil {
		event := &entities.AppointmentEvent{
			ID:            uuid.New().String(),
			Type:          eventType,
			AppointmentID: appointment.ID,
			PatientID:     appointment.PatientID,
			DoctorID:      appointment.DoctorID,
			ScheduleID:    appointment.ScheduleID,
			Date:          appointment.Date,
			Status:        appointment.Status,
			OccurredAt:    time.Now(),
		}
		if err := s.bus.Publish(ctx, providers.AppointmentEventsChannel, event); err != nil {
			logger := observability.LoggerFromContext(ctx)
			logger.Warn().Err(err).Str("appointment_id", appointment.ID).
				Msg("failed to publish appointment event")
		}
	}

	return appointment, nil
}
