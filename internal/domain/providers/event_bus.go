package providers

import (
	"context"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
)

// AppointmentEventsChannel is the bus channel lifecycle events go out on
const AppointmentEventsChannel = "appointments.events"

// EventBus publishes and subscribes to appointment lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers of the channel
	Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error

	// Subscribe subscribes to events on a channel; the returned channel is
	// closed when ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error)

	// Close tears down all subscriptions
	Close() error
}
