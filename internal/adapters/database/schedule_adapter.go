package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

const pqUniqueViolation = "23505"

// ScheduleAdapter implements the ScheduleRepository interface
type ScheduleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewScheduleAdapter creates a new schedule template adapter
func NewScheduleAdapter(client *postgres.Client) repositories.ScheduleRepository {
	return &ScheduleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var scheduleColumns = []interface{}{
	"id", "doctor_id", "weekday", "room_id", "start_time", "end_time",
	"max_capacity", "created_at", "updated_at",
}

// Create persists a new template. The unique index on
// (doctor_id, weekday, start_time) rejects duplicate triples.
func (a *ScheduleAdapter) Create(ctx context.Context, template *entities.ScheduleTemplate) error {
	record := goqu.Record{
		"id":           template.ID,
		"doctor_id":    template.DoctorID,
		"weekday":      int(template.Weekday),
		"room_id":      template.RoomID,
		"start_time":   string(template.StartTime),
		"end_time":     string(template.EndTime),
		"max_capacity": template.MaxCapacity,
		"created_at":   template.CreatedAt,
		"updated_at":   template.UpdatedAt,
	}

	query, args, err := a.db.Insert("schedule_templates").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.NewConflictError(
				apperrors.CodeDuplicateTemplate,
				fmt.Sprintf("doctor %s already has a template on %s at %s",
					template.DoctorID, template.Weekday, template.StartTime),
			)
		}
		return apperrors.NewInternalError("failed to create schedule template", err)
	}

	return nil
}

// GetByID retrieves a template by id
func (a *ScheduleAdapter) GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error) {
	query, args, err := a.db.Select(scheduleColumns...).
		From("schedule_templates").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	template, err := scanScheduleTemplate(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound,
			fmt.Sprintf("schedule template %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get schedule template", err)
	}

	return template, nil
}

// ListByDoctor retrieves all of a doctor's templates ordered by
// (weekday, start_time)
func (a *ScheduleAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error) {
	query, args, err := a.db.Select(scheduleColumns...).
		From("schedule_templates").
		Where(goqu.Ex{"doctor_id": doctorID}).
		Order(goqu.I("weekday").Asc(), goqu.I("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryTemplates(ctx, query, args)
}

// ListByDoctorsAndWeekday retrieves all templates on one weekday for any of
// the given doctors
func (a *ScheduleAdapter) ListByDoctorsAndWeekday(ctx context.Context, doctorIDs []string, weekday entities.Weekday) ([]*entities.ScheduleTemplate, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}

	query, args, err := a.db.Select(scheduleColumns...).
		From("schedule_templates").
		Where(goqu.Ex{"doctor_id": doctorIDs, "weekday": int(weekday)}).
		Order(goqu.I("doctor_id").Asc(), goqu.I("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryTemplates(ctx, query, args)
}

// Update rewrites a template's room, window and capacity
func (a *ScheduleAdapter) Update(ctx context.Context, template *entities.ScheduleTemplate) error {
	template.UpdatedAt = time.Now()

	query, args, err := a.db.Update("schedule_templates").
		Set(goqu.Record{
			"weekday":      int(template.Weekday),
			"room_id":      template.RoomID,
			"start_time":   string(template.StartTime),
			"end_time":     string(template.EndTime),
			"max_capacity": template.MaxCapacity,
			"updated_at":   template.UpdatedAt,
		}).
		Where(goqu.Ex{"id": template.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.NewConflictError(
				apperrors.CodeDuplicateTemplate,
				fmt.Sprintf("doctor %s already has a template on %s at %s",
					template.DoctorID, template.Weekday, template.StartTime),
			)
		}
		return apperrors.NewInternalError("failed to update schedule template", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound,
			fmt.Sprintf("schedule template %s not found", template.ID))
	}

	return nil
}

// Delete removes a template
func (a *ScheduleAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("schedule_templates").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete schedule template", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound,
			fmt.Sprintf("schedule template %s not found", id))
	}

	return nil
}

func (a *ScheduleAdapter) queryTemplates(ctx context.Context, query string, args []interface{}) ([]*entities.ScheduleTemplate, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list schedule templates", err)
	}
	defer rows.Close()

	var templates []*entities.ScheduleTemplate
	for rows.Next() {
		template, err := scanScheduleTemplate(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan schedule template", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate schedule templates", err)
	}

	return templates, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduleTemplate(row rowScanner) (*entities.ScheduleTemplate, error) {
	template := &entities.ScheduleTemplate{}
	var weekday int
	var startTime, endTime string

	err := row.Scan(
		&template.ID,
		&template.DoctorID,
		&weekday,
		&template.RoomID,
		&startTime,
		&endTime,
		&template.MaxCapacity,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	template.Weekday = entities.Weekday(weekday)
	template.StartTime = entities.TimeOfDay(startTime)
	template.EndTime = entities.TimeOfDay(endTime)
	return template, nil
}
