package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/observability"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
	"github.com/carelane/clinic-scheduling/pkg/retry"
)

// BookingRequest carries everything needed to place one booking
type BookingRequest struct {
	PatientID  string
	DoctorID   string
	ScheduleID string
	Date       entities.CivilDate
	Type       entities.AppointmentType
	Channel    entities.BookingChannel
}

// BookingService validates and atomically commits new appointments against a
// slot's remaining capacity, and handles cancellation and follow-up linkage.
// It is the sole writer of appointment rows.
type BookingService struct {
	appointments repositories.AppointmentRepository
	schedules    repositories.ScheduleRepository
	directory    providers.DirectoryProvider
	bus          providers.EventBus
	metrics      *observability.Metrics
}

// NewBookingService creates a new booking service. bus and metrics may be
// nil; events and metrics are then skipped.
func NewBookingService(
	appointments repositories.AppointmentRepository,
	schedules repositories.ScheduleRepository,
	directory providers.DirectoryProvider,
	bus providers.EventBus,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		appointments: appointments,
		schedules:    schedules,
		directory:    directory,
		bus:          bus,
		metrics:      metrics,
	}
}

// Book places a new appointment. Preconditions are checked in a fixed
// order (schedule, weekday, date floor) and the capacity check happens
// atomically at the instant of commit.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*entities.Appointment, error) {
	return s.book(ctx, req, nil)
}

// CreateFollowUp places a booking chained to a prior appointment of the
// same patient.
func (s *BookingService) CreateFollowUp(ctx context.Context, parentID string, req BookingRequest) (*entities.Appointment, error) {
	parent, err := s.appointments.GetByID(ctx, parentID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeParentNotFound,
				fmt.Sprintf("parent appointment %s not found", parentID))
		}
		return nil, err
	}
	if parent.PatientID != req.PatientID {
		return nil, apperrors.NewNotFoundError(apperrors.CodeParentNotFound,
			fmt.Sprintf("parent appointment %s does not belong to patient %s", parentID, req.PatientID))
	}

	return s.book(ctx, req, &parent.ID)
}

func (s *BookingService) book(ctx context.Context, req BookingRequest, parentID *string) (*entities.Appointment, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	template, err := s.schedules.GetByID(ctx, req.ScheduleID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeScheduleNotFound,
				fmt.Sprintf("schedule %s not found", req.ScheduleID))
		}
		return nil, err
	}
	if template.DoctorID != req.DoctorID {
		return nil, apperrors.NewNotFoundError(apperrors.CodeScheduleNotFound,
			fmt.Sprintf("schedule %s does not belong to doctor %s", req.ScheduleID, req.DoctorID))
	}

	if req.Date.Weekday() != template.Weekday {
		return nil, apperrors.NewValidationError(apperrors.CodeDateMismatch,
			fmt.Sprintf("%s falls on a %s but the schedule recurs on %s",
				req.Date, req.Date.Weekday(), template.Weekday))
	}

	if req.Date.Before(entities.Today()) {
		return nil, apperrors.NewValidationError(apperrors.CodeDateInPast,
			fmt.Sprintf("%s is in the past", req.Date))
	}

	doctor, err := s.directory.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	appointment := &entities.Appointment{
		ID:         uuid.New().String(),
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		ScheduleID: req.ScheduleID,
		Date:       req.Date,
		Type:       req.Type,
		Status:     req.Channel.InitialStatus(),
		FeePaid:    doctor.FeeFor(req.Type),
		ParentID:   parentID,
		BookedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The commit is retried once on transient persistence failure. A failed
	// attempt leaves no trace, so the retry cannot double-book; SLOT_FULL
	// and the other domain failures are returned as-is.
	err = retry.Do(ctx, retry.OnceConfig(), func() error {
		return s.appointments.CreateWithinCapacity(ctx, appointment, template.MaxCapacity)
	}, func(err error) bool {
		return apperrors.IsType(err, apperrors.ErrorTypeInternal)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeSlotFull) {
			observability.RecordBookingAttempt(ctx, s.metrics, "slot_full")
		} else {
			observability.RecordBookingAttempt(ctx, s.metrics, "error")
		}
		return nil, err
	}

	observability.RecordBookingAttempt(ctx, s.metrics, "booked")
	s.publish(ctx, entities.AppointmentEventBooked, appointment)
	return appointment, nil
}

// Cancel transitions an appointment to cancelled, immediately freeing one
// unit of slot capacity. Only the owning patient, the assigned doctor or
// staff may cancel.
func (s *BookingService) Cancel(ctx context.Context, appointmentID, requesterID string, role entities.RequesterRole) (*entities.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !canCancel(appointment, requesterID, role) {
		return nil, apperrors.NewForbiddenError(
			fmt.Sprintf("requester %s may not cancel appointment %s", requesterID, appointmentID))
	}

	previous := appointment.Status
	if err := appointment.TransitionTo(entities.AppointmentStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, appointmentID, previous, entities.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	s.publish(ctx, entities.AppointmentEventCancelled, appointment)
	return appointment, nil
}

// ListByPatient returns a patient's appointment history
func (s *BookingService) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.appointments.ListByPatient(ctx, patientID, filter)
}

// ListByDoctorAndDate returns a doctor's day sheet
func (s *BookingService) ListByDoctorAndDate(ctx context.Context, doctorID string, date entities.CivilDate) ([]*entities.Appointment, error) {
	return s.appointments.ListByDoctorAndDate(ctx, doctorID, date)
}

func (s *BookingService) publish(ctx context.Context, eventType entities.AppointmentEventType, appointment *entities.Appointment) {
	if s.bus == nil {
		return
	}
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

func validateBookingRequest(req BookingRequest) error {
	if req.PatientID == "" {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "patient id is required")
	}
	if req.DoctorID == "" {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "doctor id is required")
	}
	if req.ScheduleID == "" {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "schedule id is required")
	}
	if req.Date.IsZero() {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput, "appointment date is required")
	}
	if !req.Type.Valid() {
		return apperrors.NewValidationError(apperrors.CodeInvalidInput,
			fmt.Sprintf("unknown appointment type %q", req.Type))
	}
	return nil
}

func canCancel(appointment *entities.Appointment, requesterID string, role entities.RequesterRole) bool {
	switch role {
	case entities.RequesterRoleStaff:
		return true
	case entities.RequesterRolePatient:
		return requesterID == appointment.PatientID
	case entities.RequesterRoleDoctor:
		return requesterID == appointment.DoctorID
	default:
		return false
	}
}
