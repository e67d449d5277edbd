package entities

import (
	"fmt"
	"time"

	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// AppointmentType distinguishes the two billable visit kinds
type AppointmentType string

const (
	AppointmentTypeExamination  AppointmentType = "examination"
	AppointmentTypeConsultation AppointmentType = "consultation"
)

// Valid reports whether t is a known appointment type
func (t AppointmentType) Valid() bool {
	return t == AppointmentTypeExamination || t == AppointmentTypeConsultation
}

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn AppointmentStatus = "checked_in"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// allowedTransitions is the full lifecycle: a checked-in visit is already
// underway and can only complete, and the two terminal states accept nothing.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCheckedIn, AppointmentStatusCancelled},
	AppointmentStatusCheckedIn: {AppointmentStatusCompleted},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

// Terminal reports whether the status accepts no further transitions
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving to target
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// BookingChannel identifies who placed the booking. Staff-mediated bookings
// start out Confirmed; self-service ones start Pending and need staff
// confirmation.
type BookingChannel string

const (
	BookingChannelSelf  BookingChannel = "self"
	BookingChannelStaff BookingChannel = "staff"
)

// InitialStatus returns the status a freshly booked appointment starts in
func (c BookingChannel) InitialStatus() AppointmentStatus {
	if c == BookingChannelStaff {
		return AppointmentStatusConfirmed
	}
	return AppointmentStatusPending
}

// RequesterRole identifies who is asking for a cancellation
type RequesterRole string

const (
	RequesterRolePatient RequesterRole = "patient"
	RequesterRoleDoctor  RequesterRole = "doctor"
	RequesterRoleStaff   RequesterRole = "staff"
)

// Appointment is a booking of one patient into one slot. Appointments are
// never deleted; cancellation is a status change that frees capacity.
type Appointment struct {
	ID         string            `json:"id" db:"id"`
	PatientID  string            `json:"patient_id" db:"patient_id"`
	DoctorID   string            `json:"doctor_id" db:"doctor_id"`
	ScheduleID string            `json:"schedule_id" db:"schedule_id"`
	Date       CivilDate         `json:"appointment_date" db:"appointment_date"`
	Type       AppointmentType   `json:"appointment_type" db:"appointment_type"`
	Status     AppointmentStatus `json:"status" db:"status"`
	FeePaid    float64           `json:"fee_paid" db:"fee_paid"`
	ParentID   *string           `json:"parent_appointment_id,omitempty" db:"parent_id"`
	BookedAt   time.Time         `json:"booked_at" db:"booked_at"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// TransitionTo validates and applies a lifecycle transition. The appointment
// is left unchanged on failure.
func (a *Appointment) TransitionTo(target AppointmentStatus) error {
	if a.Status.Terminal() {
		return apperrors.NewConflictError(
			apperrors.CodeAlreadyTerminal,
			fmt.Sprintf("appointment %s is already %s", a.ID, a.Status),
		)
	}
	if !a.Status.CanTransitionTo(target) {
		return apperrors.NewConflictError(
			apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move appointment %s from %s to %s", a.ID, a.Status, target),
		)
	}
	a.Status = target
	a.UpdatedAt = time.Now()
	return nil
}
