package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/repositories"
)

// ScheduleService owns recurring weekly availability definitions. It is the
// write path for staff tooling; the booking engine only reads templates.
type ScheduleService struct {
	repo repositories.ScheduleRepository
}

// NewScheduleService creates a new schedule template service
func NewScheduleService(repo repositories.ScheduleRepository) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// Create validates and persists a new template
func (s *ScheduleService) Create(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	now := time.Now()
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// GetByID retrieves a template
func (s *ScheduleService) GetByID(ctx context.Context, id string) (*entities.ScheduleTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByDoctor returns a doctor's templates ordered by (weekday, start time)
func (s *ScheduleService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.ScheduleTemplate, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// Update validates and rewrites a template
func (s *ScheduleService) Update(ctx context.Context, template *entities.ScheduleTemplate) (*entities.ScheduleTemplate, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Delete removes a template
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
