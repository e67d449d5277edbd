package routes

import (
	"net/http"

	"github.com/carelane/clinic-scheduling/internal/api/handlers"
	"github.com/carelane/clinic-scheduling/internal/api/middleware"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	scheduleHandler     *handlers.ScheduleHandler
	availabilityHandler *handlers.AvailabilityHandler
	appointmentHandler  *handlers.AppointmentHandler
	eventsHandler       *handlers.EventsHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	scheduleHandler *handlers.ScheduleHandler,
	availabilityHandler *handlers.AvailabilityHandler,
	appointmentHandler *handlers.AppointmentHandler,
	eventsHandler *handlers.EventsHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		scheduleHandler:     scheduleHandler,
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		eventsHandler:       eventsHandler,
		allowedOrigins:      allowedOrigins,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Availability
	r.mux.HandleFunc("GET /api/availability", r.availabilityHandler.GetAvailability)

	// Schedule templates
	r.mux.HandleFunc("POST /api/schedules", r.scheduleHandler.CreateSchedule)
	r.mux.HandleFunc("GET /api/schedules", r.scheduleHandler.ListSchedules)
	r.mux.HandleFunc("GET /api/schedules/{id}", r.scheduleHandler.GetSchedule)
	r.mux.HandleFunc("PUT /api/schedules/{id}", r.scheduleHandler.UpdateSchedule)
	r.mux.HandleFunc("DELETE /api/schedules/{id}", r.scheduleHandler.DeleteSchedule)

	// Appointments
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.appointmentHandler.GetAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/follow-up", r.appointmentHandler.CreateFollowUp)
	r.mux.HandleFunc("POST /api/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/confirm", r.appointmentHandler.ConfirmAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/check-in", r.appointmentHandler.CheckInAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/complete", r.appointmentHandler.CompleteAppointment)

	// Listings
	r.mux.HandleFunc("GET /api/patients/{id}/appointments", r.appointmentHandler.ListPatientAppointments)
	r.mux.HandleFunc("GET /api/doctors/{id}/appointments", r.appointmentHandler.ListDoctorAppointments)

	// Live event stream
	r.mux.HandleFunc("GET /api/stream/appointments", r.eventsHandler.StreamAppointmentEvents)

	// Middleware chain, innermost first
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)
	handler = middleware.LoggingMiddleware(handler)

	return handler
}
