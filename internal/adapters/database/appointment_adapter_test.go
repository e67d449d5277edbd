package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/clinic-scheduling/internal/adapters/database"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

func newMockAdapter(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func testAppointment() *entities.Appointment {
	date, _ := entities.ParseCivilDate("2026-09-07")
	now := time.Now()
	return &entities.Appointment{
		ID:         "appt-1",
		PatientID:  "pat-1",
		DoctorID:   "doc-7",
		ScheduleID: "sched-1",
		Date:       date,
		Type:       entities.AppointmentTypeExamination,
		Status:     entities.AppointmentStatusPending,
		FeePaid:    150,
		BookedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestAppointmentAdapter_CreateWithinCapacity(t *testing.T) {
	t.Run("inserts while capacity remains", func(t *testing.T) {
		client, mock := newMockAdapter(t)
		adapter := database.NewAppointmentAdapter(client)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM schedule_templates WHERE id = \$1 FOR UPDATE`).
			WithArgs("sched-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sched-1"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "appointments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO "appointments"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.CreateWithinCapacity(context.Background(), testAppointment(), 2)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects when slot is full", func(t *testing.T) {
		client, mock := newMockAdapter(t)
		adapter := database.NewAppointmentAdapter(client)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM schedule_templates WHERE id = \$1 FOR UPDATE`).
			WithArgs("sched-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sched-1"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "appointments"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectRollback()

		err := adapter.CreateWithinCapacity(context.Background(), testAppointment(), 2)

		assert.True(t, apperrors.IsCode(err, apperrors.CodeSlotFull))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing template to schedule not found", func(t *testing.T) {
		client, mock := newMockAdapter(t)
		adapter := database.NewAppointmentAdapter(client)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM schedule_templates WHERE id = \$1 FOR UPDATE`).
			WithArgs("sched-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err := adapter.CreateWithinCapacity(context.Background(), testAppointment(), 2)

		assert.True(t, apperrors.IsCode(err, apperrors.CodeScheduleNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAppointmentAdapter_UpdateStatus(t *testing.T) {
	t.Run("applies a guarded transition", func(t *testing.T) {
		client, mock := newMockAdapter(t)
		adapter := database.NewAppointmentAdapter(client)

		mock.ExpectExec(`UPDATE "appointments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.UpdateStatus(context.Background(), "appt-1",
			entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not found for an unknown appointment", func(t *testing.T) {
		client, mock := newMockAdapter(t)
		adapter := database.NewAppointmentAdapter(client)

		mock.ExpectExec(`UPDATE "appointments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM "appointments"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := adapter.UpdateStatus(context.Background(), "appt-404",
			entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed)

		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	})
}

func TestAppointmentAdapter_CountBookedBySchedule(t *testing.T) {
	client, mock := newMockAdapter(t)
	adapter := database.NewAppointmentAdapter(client)
	date, _ := entities.ParseCivilDate("2026-09-07")

	mock.ExpectQuery(`SELECT "schedule_id", COUNT\(\*\) FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id", "count"}).
			AddRow("sched-1", 2).
			AddRow("sched-2", 1))

	counts, err := adapter.CountBookedBySchedule(context.Background(), []string{"sched-1", "sched-2", "sched-3"}, date)

	require.NoError(t, err)
	assert.Equal(t, 2, counts["sched-1"])
	assert.Equal(t, 1, counts["sched-2"])
	_, present := counts["sched-3"]
	assert.False(t, present, "schedules with no bookings have no row")
}

func TestAppointmentAdapter_CountBookedBySchedule_Empty(t *testing.T) {
	client, _ := newMockAdapter(t)
	adapter := database.NewAppointmentAdapter(client)
	date, _ := entities.ParseCivilDate("2026-09-07")

	counts, err := adapter.CountBookedBySchedule(context.Background(), nil, date)

	require.NoError(t, err)
	assert.Empty(t, counts)
}
