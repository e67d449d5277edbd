//go:build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/carelane/clinic-scheduling/internal/adapters/database"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

type BookingIntegrationTestSuite struct {
	suite.Suite
	client       *postgres.Client
	db           *sql.DB
	schedules    repositories.ScheduleRepository
	appointments repositories.AppointmentRepository
}

func (suite *BookingIntegrationTestSuite) SetupSuite() {
	if os.Getenv("TEST_DB_HOST") == "" {
		suite.T().Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	suite.client = newTestPostgresClient(suite.T())
	suite.db = suite.client.DB()
	suite.schedules = database.NewScheduleAdapter(suite.client)
	suite.appointments = database.NewAppointmentAdapter(suite.client)

	schemaSQL, err := os.ReadFile("../../migrations/schema.sql")
	require.NoError(suite.T(), err)
	_, err = suite.db.Exec(string(schemaSQL))
	require.NoError(suite.T(), err)
}

func (suite *BookingIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.client.Close()
	}
}

func (suite *BookingIntegrationTestSuite) SetupTest() {
	_, err := suite.db.Exec(`TRUNCATE TABLE appointments, schedule_templates CASCADE`)
	require.NoError(suite.T(), err)
}

func (suite *BookingIntegrationTestSuite) createTemplate(capacity int) *entities.ScheduleTemplate {
	now := time.Now()
	template := &entities.ScheduleTemplate{
		ID:          uuid.New().String(),
		DoctorID:    "doc-7",
		Weekday:     entities.Monday,
		RoomID:      "room-1",
		StartTime:   "09:00",
		EndTime:     "12:00",
		MaxCapacity: capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(suite.T(), suite.schedules.Create(context.Background(), template))
	return template
}

func (suite *BookingIntegrationTestSuite) newAppointment(template *entities.ScheduleTemplate, date entities.CivilDate) *entities.Appointment {
	now := time.Now()
	return &entities.Appointment{
		ID:         uuid.New().String(),
		PatientID:  "pat-" + uuid.New().String(),
		DoctorID:   template.DoctorID,
		ScheduleID: template.ID,
		Date:       date,
		Type:       entities.AppointmentTypeExamination,
		Status:     entities.AppointmentStatusPending,
		BookedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Hammers one slot from many goroutines against a real database. The row
// lock on the template must let exactly maxCapacity inserts through.
func (suite *BookingIntegrationTestSuite) TestCreateWithinCapacity_Concurrent() {
	const capacity = 3
	const contenders = capacity + 5

	template := suite.createTemplate(capacity)
	date := entities.CivilDateOf(time.Now().AddDate(0, 0, 7))

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appointment := suite.newAppointment(template, date)
			errs[i] = suite.appointments.CreateWithinCapacity(context.Background(), appointment, capacity)
		}(i)
	}
	wg.Wait()

	succeeded, slotFull := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsCode(err, apperrors.CodeSlotFull):
			slotFull++
		default:
			suite.T().Fatalf("unexpected error: %v", err)
		}
	}
	suite.Equal(capacity, succeeded)
	suite.Equal(contenders-capacity, slotFull)

	count, err := suite.appointments.CountBooked(context.Background(), template.ID, date)
	suite.Require().NoError(err)
	suite.Equal(capacity, count)
}

func (suite *BookingIntegrationTestSuite) TestCancellationFreesCapacity() {
	template := suite.createTemplate(1)
	date := entities.CivilDateOf(time.Now().AddDate(0, 0, 7))
	ctx := context.Background()

	first := suite.newAppointment(template, date)
	suite.Require().NoError(suite.appointments.CreateWithinCapacity(ctx, first, 1))

	blocked := suite.newAppointment(template, date)
	err := suite.appointments.CreateWithinCapacity(ctx, blocked, 1)
	suite.True(apperrors.IsCode(err, apperrors.CodeSlotFull))

	suite.Require().NoError(suite.appointments.UpdateStatus(ctx, first.ID,
		entities.AppointmentStatusPending, entities.AppointmentStatusCancelled))

	suite.NoError(suite.appointments.CreateWithinCapacity(ctx, blocked, 1))
}

func (suite *BookingIntegrationTestSuite) TestDuplicateTemplateRejected() {
	template := suite.createTemplate(2)

	duplicate := *template
	duplicate.ID = uuid.New().String()
	err := suite.schedules.Create(context.Background(), &duplicate)

	suite.True(apperrors.IsCode(err, apperrors.CodeDuplicateTemplate))
}

func (suite *BookingIntegrationTestSuite) TestGuardedStatusUpdate() {
	template := suite.createTemplate(2)
	date := entities.CivilDateOf(time.Now().AddDate(0, 0, 7))
	ctx := context.Background()

	appointment := suite.newAppointment(template, date)
	suite.Require().NoError(suite.appointments.CreateWithinCapacity(ctx, appointment, 2))

	// stale expectation loses
	err := suite.appointments.UpdateStatus(ctx, appointment.ID,
		entities.AppointmentStatusConfirmed, entities.AppointmentStatusCheckedIn)
	suite.True(apperrors.IsCode(err, apperrors.CodeInvalidTransition))

	suite.NoError(suite.appointments.UpdateStatus(ctx, appointment.ID,
		entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed))
}

func TestBookingIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(BookingIntegrationTestSuite))
}
