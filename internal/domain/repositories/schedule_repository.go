package repositories

import (
	"context"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// ScheduleRepository defines the interface for schedule template storage.
// The booking engine reads templates; staff tooling writes them.
type ScheduleRepository interface {
	// Create persists a new template. A template with the same
	// (doctor, weekday, start time) triple is a duplicate and is rejected.
	Create(ctx context.Context, template *entities.ScheduleTemplate) error

	// GetByID retrieves a template by id
	GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error)

	// ListByDoctor retrieves a doctor's templates ordered by
	// (weekday, start time); the resolver relies on this ordering to
	// present slots chronologically.
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error)

	// ListByDoctorsAndWeekday retrieves the templates of any of the given
	// doctors on one weekday, ordered by (doctor, start time)
	ListByDoctorsAndWeekday(ctx context.Context, doctorIDs []string, weekday entities.Weekday) ([]*entities.ScheduleTemplate, error)

	// Update rewrites a template's room, window and capacity
	Update(ctx context.Context, template *entities.ScheduleTemplate) error

	// Delete removes a template
	Delete(ctx context.Context, id string) error
}
