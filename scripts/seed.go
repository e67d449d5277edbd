package main

import (
	"context"
	"log"
	"os"

	"github.com/carelane/clinic-scheduling/internal/adapters/database"
	"github.com/carelane/clinic-scheduling/internal/application/services"
	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	"github.com/carelane/clinic-scheduling/pkg/config"
)

// Seeds a development database with the weekly templates of the mock
// directory's doctors. Doctor and room ids must match the directory the
// server runs against.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				appointments,
				schedule_templates
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	scheduleService := services.NewScheduleService(database.NewScheduleAdapter(pgClient))

	templates := []*entities.ScheduleTemplate{
		{DoctorID: "doc-7", Weekday: entities.Monday, RoomID: "room-1", StartTime: "09:00", EndTime: "12:00", MaxCapacity: 4},
		{DoctorID: "doc-7", Weekday: entities.Monday, RoomID: "room-1", StartTime: "14:00", EndTime: "17:00", MaxCapacity: 4},
		{DoctorID: "doc-7", Weekday: entities.Wednesday, RoomID: "room-1", StartTime: "09:00", EndTime: "13:00", MaxCapacity: 6},
		{DoctorID: "doc-8", Weekday: entities.Monday, RoomID: "room-2", StartTime: "10:00", EndTime: "13:00", MaxCapacity: 3},
		{DoctorID: "doc-8", Weekday: entities.Thursday, RoomID: "room-2", StartTime: "09:00", EndTime: "12:00", MaxCapacity: 3},
		{DoctorID: "doc-8", Weekday: entities.Friday, RoomID: "room-2", StartTime: "13:00", EndTime: "16:00", MaxCapacity: 2},
	}

	created := 0
	for _, template := range templates {
		if _, err := scheduleService.Create(ctx, template); err != nil {
			log.Printf("Failed to create template %s %s %s: %v",
				template.DoctorID, template.Weekday, template.StartTime, err)
			continue
		}
		created++
	}

	log.Printf("Seeding complete: %d/%d templates created", created, len(templates))
}
