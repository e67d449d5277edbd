package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var appointmentColumns = []interface{}{
	"id", "patient_id", "doctor_id", "schedule_id", "appointment_date",
	"appointment_type", "status", "fee_paid", "parent_id", "booked_at",
	"created_at", "updated_at",
}

// lockScheduleSQL serializes bookings per schedule template: every booking
// transaction for a template takes this row lock first, so the
// count-then-insert below is atomic with respect to concurrent bookers.
const lockScheduleSQL = `SELECT id FROM schedule_templates WHERE id = $1 FOR UPDATE`

// CreateWithinCapacity inserts the appointment inside a transaction that
// holds the schedule template's row lock across the capacity count and the
// insert. The transaction either fully commits or leaves no trace.
func (a *AppointmentAdapter) CreateWithinCapacity(ctx context.Context, appointment *entities.Appointment, maxCapacity int) error {
	tx, err := a.client.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin booking transaction", err)
	}
	defer tx.Rollback()

	var lockedID string
	if err := tx.QueryRowContext(ctx, lockScheduleSQL, appointment.ScheduleID).Scan(&lockedID); err != nil {
		if err == sql.ErrNoRows {
			return apperrors.NewNotFoundError(apperrors.CodeScheduleNotFound,
				fmt.Sprintf("schedule template %s not found", appointment.ScheduleID))
		}
		return apperrors.NewInternalError("failed to lock schedule template", err)
	}

	countQuery, countArgs, err := a.db.From("appointments").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{
			"schedule_id":      appointment.ScheduleID,
			"appointment_date": appointment.Date.Time(),
		}).
		Where(goqu.C("status").Neq(string(entities.AppointmentStatusCancelled))).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build count query", err)
	}

	var booked int
	if err := tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&booked); err != nil {
		return apperrors.NewInternalError("failed to count booked appointments", err)
	}

	if booked >= maxCapacity {
		return apperrors.NewConflictError(apperrors.CodeSlotFull,
			fmt.Sprintf("slot %s on %s is fully booked (%d/%d)",
				appointment.ScheduleID, appointment.Date, booked, maxCapacity))
	}

	insertQuery, insertArgs, err := a.db.Insert("appointments").Rows(goqu.Record{
		"id":               appointment.ID,
		"patient_id":       appointment.PatientID,
		"doctor_id":        appointment.DoctorID,
		"schedule_id":      appointment.ScheduleID,
		"appointment_date": appointment.Date.Time(),
		"appointment_type": string(appointment.Type),
		"status":           string(appointment.Status),
		"fee_paid":         appointment.FeePaid,
		"parent_id":        appointment.ParentID,
		"booked_at":        appointment.BookedAt,
		"created_at":       appointment.CreatedAt,
		"updated_at":       appointment.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return apperrors.NewInternalError("failed to insert appointment", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit booking transaction", err)
	}

	return nil
}

// GetByID retrieves an appointment by id
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound,
			fmt.Sprintf("appointment %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// UpdateStatus moves an appointment from one status to another; the guard on
// the previous status makes racing transitions lose cleanly.
func (a *AppointmentAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     string(to),
			"updated_at": goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": id, "status": string(from)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		if _, getErr := a.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.NewConflictError(apperrors.CodeInvalidTransition,
			fmt.Sprintf("appointment %s is no longer %s", id, from))
	}

	return nil
}

// CountBooked counts non-cancelled appointments for one (schedule, date) pair
func (a *AppointmentAdapter) CountBooked(ctx context.Context, scheduleID string, date entities.CivilDate) (int, error) {
	query, args, err := a.db.From("appointments").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{
			"schedule_id":      scheduleID,
			"appointment_date": date.Time(),
		}).
		Where(goqu.C("status").Neq(string(entities.AppointmentStatusCancelled))).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count appointments", err)
	}

	return count, nil
}

// CountBookedBySchedule counts the non-cancelled appointments of each given
// schedule on one date. One indexed query serves the whole availability
// resolution.
func (a *AppointmentAdapter) CountBookedBySchedule(ctx context.Context, scheduleIDs []string, date entities.CivilDate) (map[string]int, error) {
	counts := make(map[string]int, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return counts, nil
	}

	query, args, err := a.db.From("appointments").
		Select("schedule_id", goqu.COUNT("*")).
		Where(goqu.Ex{
			"schedule_id":      scheduleIDs,
			"appointment_date": date.Time(),
		}).
		Where(goqu.C("status").Neq(string(entities.AppointmentStatusCancelled))).
		GroupBy("schedule_id").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count appointments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID string
		var count int
		if err := rows.Scan(&scheduleID, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment count", err)
		}
		counts[scheduleID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointment counts", err)
	}

	return counts, nil
}

// ListByPatient retrieves a patient's appointments, most recent first
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"patient_id": patientID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}

	ds = ds.Order(goqu.I("appointment_date").Desc(), goqu.I("booked_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// ListByDoctorAndDate retrieves a doctor's day sheet: every appointment on
// one date ordered by booking time
func (a *AppointmentAdapter) ListByDoctorAndDate(ctx context.Context, doctorID string, date entities.CivilDate) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{
			"doctor_id":        doctorID,
			"appointment_date": date.Time(),
		}).
		Order(goqu.I("booked_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, query string, args []interface{}) ([]*entities.Appointment, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}

	return appointments, nil
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var date sql.NullTime
	var appointmentType, status string
	var parentID sql.NullString

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.ScheduleID,
		&date,
		&appointmentType,
		&status,
		&appointment.FeePaid,
		&parentID,
		&appointment.BookedAt,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if date.Valid {
		appointment.Date = entities.CivilDateOf(date.Time.UTC())
	}
	appointment.Type = entities.AppointmentType(appointmentType)
	appointment.Status = entities.AppointmentStatus(status)
	if parentID.Valid {
		appointment.ParentID = &parentID.String
	}

	return appointment, nil
}
