package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carelane/clinic-scheduling/internal/api/handlers"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) Create(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, template)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleService) GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleService) Update(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, template)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func schedulePayload() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"doctor_id":    "doc-7",
		"weekday":      "monday",
		"room_id":      "room-1",
		"start_time":   "09:00",
		"end_time":     "12:00",
		"max_capacity": 5,
	})
	return body
}

func TestScheduleHandler_CreateSchedule(t *testing.T) {
	t.Run("successfully creates a template", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("Create", mock.Anything, mock.MatchedBy(func(tpl *entities.ScheduleTemplate) bool {
			return tpl.DoctorID == "doc-7" && tpl.Weekday == entities.Monday && tpl.StartTime == "09:00"
		})).Return(&entities.ScheduleTemplate{ID: "sched-1"}, nil)

		req := httptest.NewRequest("POST", "/api/schedules", bytes.NewBuffer(schedulePayload()))
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		service.AssertExpectations(t)
	})

	t.Run("duplicate template maps to 409 with its code", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConflictError(apperrors.CodeDuplicateTemplate, "duplicate template"))

		req := httptest.NewRequest("POST", "/api/schedules", bytes.NewBuffer(schedulePayload()))
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.CodeDuplicateTemplate, decodeError(t, w)["code"])
	})

	t.Run("invalid window maps to 400 with its code", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError(apperrors.CodeInvalidWindow, "start must precede end"))

		req := httptest.NewRequest("POST", "/api/schedules", bytes.NewBuffer(schedulePayload()))
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidWindow, decodeError(t, w)["code"])
	})

	t.Run("returns bad request for invalid payload", func(t *testing.T) {
		handler := handlers.NewScheduleHandler(new(MockScheduleService))

		req := httptest.NewRequest("POST", "/api/schedules", bytes.NewBufferString("not-json"))
		w := httptest.NewRecorder()

		handler.CreateSchedule(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestScheduleHandler_ListSchedules(t *testing.T) {
	t.Run("requires the doctor parameter", func(t *testing.T) {
		handler := handlers.NewScheduleHandler(new(MockScheduleService))

		req := httptest.NewRequest("GET", "/api/schedules", nil)
		w := httptest.NewRecorder()

		handler.ListSchedules(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists a doctor's templates", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("ListByDoctor", mock.Anything, "doc-7").
			Return([]*entities.ScheduleTemplate{{ID: "sched-1"}, {ID: "sched-2"}}, nil)

		req := httptest.NewRequest("GET", "/api/schedules?doctor=doc-7", nil)
		w := httptest.NewRecorder()

		handler.ListSchedules(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		service.AssertExpectations(t)
	})
}

func TestScheduleHandler_DeleteSchedule(t *testing.T) {
	t.Run("unknown id maps to 404", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("Delete", mock.Anything, "sched-missing").
			Return(apperrors.NewNotFoundError(apperrors.CodeNotFound, "not found"))

		req := httptest.NewRequest("DELETE", "/api/schedules/sched-missing", nil)
		req.SetPathValue("id", "sched-missing")
		w := httptest.NewRecorder()

		handler.DeleteSchedule(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("successful delete returns no content", func(t *testing.T) {
		service := new(MockScheduleService)
		handler := handlers.NewScheduleHandler(service)

		service.On("Delete", mock.Anything, "sched-1").Return(nil)

		req := httptest.NewRequest("DELETE", "/api/schedules/sched-1", nil)
		req.SetPathValue("id", "sched-1")
		w := httptest.NewRecorder()

		handler.DeleteSchedule(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestScheduleHandler_UpdateSchedule(t *testing.T) {
	service := new(MockScheduleService)
	handler := handlers.NewScheduleHandler(service)

	service.On("Update", mock.Anything, mock.MatchedBy(func(tpl *entities.ScheduleTemplate) bool {
		return tpl.ID == "sched-1"
	})).Return(&entities.ScheduleTemplate{ID: "sched-1"}, nil)

	req := httptest.NewRequest("PUT", "/api/schedules/sched-1", bytes.NewBuffer(schedulePayload()))
	req.SetPathValue("id", "sched-1")
	w := httptest.NewRecorder()

	handler.UpdateSchedule(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}
