package services_test

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// Mocks shared by the service tests

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, template *entities.ScheduleTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleRepository) ListByDoctorsAndWeekday(ctx context.Context, doctorIDs []string, weekday entities.Weekday) ([]*entities.ScheduleTemplate, error) {
	args := m.Called(ctx, doctorIDs, weekday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ScheduleTemplate), args.Error(1)
}

func (m *MockScheduleRepository) Update(ctx context.Context, template *entities.ScheduleTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDirectoryProvider struct {
	mock.Mock
}

func (m *MockDirectoryProvider) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDirectoryProvider) ListDoctorsBySpecialty(ctx context.Context, specialtyID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, specialtyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDirectoryProvider) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Room), args.Error(1)
}

func (m *MockDirectoryProvider) GetSpecialty(ctx context.Context, id string) (*entities.Specialty, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Specialty), args.Error(1)
}

// RecordingEventBus captures published events for assertions
type RecordingEventBus struct {
	mu     sync.Mutex
	events []*entities.AppointmentEvent
}

func NewRecordingEventBus() *RecordingEventBus {
	return &RecordingEventBus{}
}

func (b *RecordingEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *RecordingEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	ch := make(chan *entities.AppointmentEvent)
	close(ch)
	return ch, nil
}

func (b *RecordingEventBus) Close() error { return nil }

func (b *RecordingEventBus) Events() []*entities.AppointmentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entities.AppointmentEvent, len(b.events))
	copy(out, b.events)
	return out
}

// memAppointmentStore is an in-memory AppointmentRepository with the same
// linearizability contract as the real adapter: the capacity check and the
// insert are one critical section, so it is safe to hammer concurrently.
type memAppointmentStore struct {
	mu           sync.Mutex
	appointments map[string]*entities.Appointment
	// failures > 0 makes the next CreateWithinCapacity calls fail with a
	// transient internal error, for exercising the commit retry
	failures int
}

func newMemAppointmentStore() *memAppointmentStore {
	return &memAppointmentStore{appointments: make(map[string]*entities.Appointment)}
}

func (s *memAppointmentStore) CreateWithinCapacity(ctx context.Context, appointment *entities.Appointment, maxCapacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return apperrors.NewInternalError("simulated transient failure", nil)
	}

	booked := 0
	for _, existing := range s.appointments {
		if existing.ScheduleID == appointment.ScheduleID &&
			existing.Date.Equal(appointment.Date) &&
			existing.Status != entities.AppointmentStatusCancelled {
			booked++
		}
	}
	if booked >= maxCapacity {
		return apperrors.NewConflictError(apperrors.CodeSlotFull, "slot is fully booked")
	}

	stored := *appointment
	s.appointments[appointment.ID] = &stored
	return nil
}

func (s *memAppointmentStore) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "appointment not found")
	}
	out := *stored
	return &out, nil
}

func (s *memAppointmentStore) UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.appointments[id]
	if !ok {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, "appointment not found")
	}
	if stored.Status != from {
		return apperrors.NewConflictError(apperrors.CodeInvalidTransition, "appointment changed status concurrently")
	}
	stored.Status = to
	return nil
}

func (s *memAppointmentStore) CountBooked(ctx context.Context, scheduleID string, date entities.CivilDate) (int, error) {
	counts, err := s.CountBookedBySchedule(ctx, []string{scheduleID}, date)
	if err != nil {
		return 0, err
	}
	return counts[scheduleID], nil
}

func (s *memAppointmentStore) CountBookedBySchedule(ctx context.Context, scheduleIDs []string, date entities.CivilDate) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	counts := make(map[string]int)
	for _, existing := range s.appointments {
		if wanted[existing.ScheduleID] &&
			existing.Date.Equal(date) &&
			existing.Status != entities.AppointmentStatusCancelled {
			counts[existing.ScheduleID]++
		}
	}
	return counts, nil
}

func (s *memAppointmentStore) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entities.Appointment
	for _, existing := range s.appointments {
		if existing.PatientID != patientID {
			continue
		}
		if filter.Status != "" && existing.Status != filter.Status {
			continue
		}
		stored := *existing
		out = append(out, &stored)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out, nil
}

func (s *memAppointmentStore) ListByDoctorAndDate(ctx context.Context, doctorID string, date entities.CivilDate) ([]*entities.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entities.Appointment
	for _, existing := range s.appointments {
		if existing.DoctorID == doctorID && existing.Date.Equal(date) {
			stored := *existing
			out = append(out, &stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.Before(out[j].BookedAt) })
	return out, nil
}

// nextDateOn returns the next future civil date falling on the weekday
func nextDateOn(weekday entities.Weekday) entities.CivilDate {
	date := entities.Today().AddDays(1)
	for date.Weekday() != weekday {
		date = date.AddDays(1)
	}
	return date
}
