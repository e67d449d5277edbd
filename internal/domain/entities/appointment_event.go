package entities

import "time"

// AppointmentEventType identifies what happened to an appointment
type AppointmentEventType string

const (
	AppointmentEventBooked    AppointmentEventType = "appointment.booked"
	AppointmentEventConfirmed AppointmentEventType = "appointment.confirmed"
	AppointmentEventCheckedIn AppointmentEventType = "appointment.checked_in"
	AppointmentEventCompleted AppointmentEventType = "appointment.completed"
	AppointmentEventCancelled AppointmentEventType = "appointment.cancelled"
)

// AppointmentEvent is published on the event bus whenever an appointment is
// created or changes lifecycle state. Downstream consumers (notifications,
// reporting) subscribe; the engine never depends on them.
type AppointmentEvent struct {
	ID            string               `json:"id"`
	Type          AppointmentEventType `json:"type"`
	AppointmentID string               `json:"appointment_id"`
	PatientID     string               `json:"patient_id"`
	DoctorID      string               `json:"doctor_id"`
	ScheduleID    string               `json:"schedule_id"`
	Date          CivilDate            `json:"appointment_date"`
	Status        AppointmentStatus    `json:"status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
