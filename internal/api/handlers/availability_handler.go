package handlers

import (
	"context"
	"net/http"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// AvailabilityService defines the interface for slot resolution
type AvailabilityService interface {
	Resolve(ctx context.Context, specialtyID string, date entities.CivilDate) ([]*entities.DoctorAvailability, error)
}

// AvailabilityHandler handles slot availability requests
type AvailabilityHandler struct {
	service AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(service AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetAvailability handles GET /api/availability?specialty={id}&date=YYYY-MM-DD
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	specialtyID := r.URL.Query().Get("specialty")
	if specialtyID == "" {
		respondWithError(w, http.StatusBadRequest, "specialty query parameter is required")
		return
	}

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

	availability, err := h.service.Resolve(r.Context(), specialtyID, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":         date,
		"availability": availability,
	})
}
