package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/carelane/clinic-scheduling/internal/application/services"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
)

// BookingService defines the interface for booking operations
type BookingService interface {
	Book(ctx context.Context, req services.BookingRequest) (*entities.Appointment, error)
	CreateFollowUp(ctx context.Context, parentID string, req services.BookingRequest) (*entities.Appointment, error)
	Cancel(ctx context.Context, appointmentID, requesterID string, role entities.RequesterRole) (*entities.Appointment, error)
	ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
	ListByDoctorAndDate(ctx context.Context, doctorID string, date entities.CivilDate) ([]*entities.Appointment, error)
}

// LifecycleService defines the interface for forward lifecycle transitions
type LifecycleService interface {
	Confirm(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	CheckIn(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	Complete(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	GetByID(ctx context.Context, appointmentID string) (*entities.Appointment, error)
}

// AppointmentHandler handles booking and lifecycle requests
type AppointmentHandler struct {
	booking   BookingService
	lifecycle LifecycleService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(booking BookingService, lifecycle LifecycleService) *AppointmentHandler {
	return &AppointmentHandler{booking: booking, lifecycle: lifecycle}
}

type bookAppointmentRequest struct {
	PatientID  string                   `json:"patient_id"`
	DoctorID   string                   `json:"doctor_id"`
	ScheduleID string                   `json:"schedule_id"`
	Date       string                   `json:"appointment_date"`
	Type       entities.AppointmentType `json:"appointment_type"`
}

func (h *AppointmentHandler) decodeBookingRequest(r *http.Request) (services.BookingRequest, error) {
	var body bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return services.BookingRequest{}, err
	}

	req := services.BookingRequest{
		PatientID:  body.PatientID,
		DoctorID:   body.DoctorID,
		ScheduleID: body.ScheduleID,
		Type:       body.Type,
		Channel:    entities.BookingChannelSelf,
	}
	if r.Header.Get("X-Booking-Channel") == string(entities.BookingChannelStaff) {
		req.Channel = entities.BookingChannelStaff
	}
	if body.Date != "" {
		date, err := entities.ParseCivilDate(body.Date)
		if err != nil {
			return services.BookingRequest{}, err
		}
		req.Date = date
	}
	return req, nil
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeBookingRequest(r)
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}

	appointment, err := h.booking.Book(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// CreateFollowUp handles POST /api/appointments/{id}/follow-up
func (h *AppointmentHandler) CreateFollowUp(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeBookingRequest(r)
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}

	appointment, err := h.booking.CreateFollowUp(r.Context(), r.PathValue("id"), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := h.lifecycle.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel. The
// requester identity arrives in headers until an auth layer exists.
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	requesterID := r.Header.Get("X-Requester-Id")
	if requesterID == "" {
		respondWithError(w, http.StatusBadRequest, "X-Requester-Id header is required")
		return
	}
	role := entities.RequesterRole(r.Header.Get("X-Requester-Role"))
	if role == "" {
		role = entities.RequesterRolePatient
	}

	appointment, err := h.booking.Cancel(r.Context(), r.PathValue("id"), requesterID, role)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ConfirmAppointment handles POST /api/appointments/{id}/confirm
func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Confirm)
}

// CheckInAppointment handles POST /api/appointments/{id}/check-in
func (h *AppointmentHandler) CheckInAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.CheckIn)
}

// CompleteAppointment handles POST /api/appointments/{id}/complete
func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Complete)
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*entities.Appointment, error)) {
	appointment, err := apply(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *AppointmentHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	filter := repositories.AppointmentFilter{
		Status: entities.AppointmentStatus(r.URL.Query().Get("status")),
	}

	appointments, err := h.booking.ListByPatient(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}

// ListDoctorAppointments handles GET /api/doctors/{id}/appointments?date=YYYY-MM-DD
func (h *AppointmentHandler) ListDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := entities.ParseCivilDate(dateStr)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	appointments, err := h.booking.ListByDoctorAndDate(r.Context(), r.PathValue("id"), date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":         date,
		"appointments": appointments,
	})
}
