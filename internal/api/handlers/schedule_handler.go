package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// ScheduleService defines the interface for schedule template operations
type ScheduleService interface {
	Create(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error)
	GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error)
	Update(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler handles schedule template requests
type ScheduleHandler struct {
	service ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// CreateSchedule handles POST /api/schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var template entities.ScheduleTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	created, err := h.service.Create(r.Context(), &template)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// GetSchedule handles GET /api/schedules/{id}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, template)
}

// ListSchedules handles GET /api/schedules?doctor={id}
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor query parameter is required")
		return
	}

	templates, err := h.service.ListByDoctor(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": templates,
	})
}

// UpdateSchedule handles PUT /api/schedules/{id}
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var template entities.ScheduleTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	template.ID = r.PathValue("id")

	updated, err := h.service.Update(r.Context(), &template)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteSchedule handles DELETE /api/schedules/{id}
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
