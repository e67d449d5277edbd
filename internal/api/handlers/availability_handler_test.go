package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carelane/clinic-scheduling/internal/api/handlers"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) Resolve(ctx context.Context, specialtyID string, date entities.CivilDate) ([]*entities.DoctorAvailability, error) {
	args := m.Called(ctx, specialtyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DoctorAvailability), args.Error(1)
}

func TestAvailabilityHandler_GetAvailability(t *testing.T) {
	t.Run("requires the specialty parameter", func(t *testing.T) {
		handler := handlers.NewAvailabilityHandler(new(MockAvailabilityService))

		req := httptest.NewRequest("GET", "/api/availability?date=2026-09-07", nil)
		w := httptest.NewRecorder()

		handler.GetAvailability(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		handler := handlers.NewAvailabilityHandler(new(MockAvailabilityService))

		req := httptest.NewRequest("GET", "/api/availability?specialty=spec-cardio&date=07-09-2026", nil)
		w := httptest.NewRecorder()

		handler.GetAvailability(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns grouped availability", func(t *testing.T) {
		service := new(MockAvailabilityService)
		handler := handlers.NewAvailabilityHandler(service)

		date, err := entities.ParseCivilDate("2026-09-07")
		require.NoError(t, err)

		service.On("Resolve", mock.Anything, "spec-cardio", date).
			Return([]*entities.DoctorAvailability{
				{
					Doctor: &entities.Doctor{ID: "doc-7", FullName: "Dr. Amaka Obi"},
					Slots: []entities.Slot{
						{ScheduleID: "sched-1", StartTime: "09:00", EndTime: "12:00", MaxCapacity: 2, BookedCount: 1, Available: true},
					},
				},
			}, nil)

		req := httptest.NewRequest("GET", "/api/availability?specialty=spec-cardio&date=2026-09-07", nil)
		w := httptest.NewRecorder()

		handler.GetAvailability(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Date         string `json:"date"`
			Availability []struct {
				Doctor struct {
					ID string `json:"id"`
				} `json:"doctor"`
				Slots []struct {
					ScheduleID string `json:"schedule_id"`
					Available  bool   `json:"available"`
				} `json:"slots"`
			} `json:"availability"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "2026-09-07", body.Date)
		require.Len(t, body.Availability, 1)
		assert.Equal(t, "doc-7", body.Availability[0].Doctor.ID)
		require.Len(t, body.Availability[0].Slots, 1)
		assert.True(t, body.Availability[0].Slots[0].Available)
	})

	t.Run("empty availability is an empty list, not an error", func(t *testing.T) {
		service := new(MockAvailabilityService)
		handler := handlers.NewAvailabilityHandler(service)

		service.On("Resolve", mock.Anything, "spec-derm", mock.Anything).
			Return([]*entities.DoctorAvailability{}, nil)

		req := httptest.NewRequest("GET", "/api/availability?specialty=spec-derm&date=2026-09-07", nil)
		w := httptest.NewRecorder()

		handler.GetAvailability(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"availability":[]`)
	})
}
