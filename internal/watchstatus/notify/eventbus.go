package notify

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/pkg/events"
	"github.com/narwhalmedia/watchtrack/pkg/interfaces"
)

// EventTypeStatusChanged is the event type published on the in-process bus.
const EventTypeStatusChanged = "watch_status.changed"

// EventBusNotifier publishes changes to an in-process event bus.
type EventBusNotifier struct {
	bus interfaces.EventBus
}

// NewEventBusNotifier creates a notifier over bus.
func NewEventBusNotifier(bus interfaces.EventBus) *EventBusNotifier {
	return &EventBusNotifier{bus: bus}
}

// Notify publishes one event per change. The aggregate id is
// "<entity type>:<entity id>".
func (n *EventBusNotifier) Notify(ctx context.Context, batch domain.ChangeBatch) error {
	for _, env := range Envelopes(batch) {
		aggregateID := fmt.Sprintf("%s:%d", env.Change.EntityType, env.Change.EntityID)
		if err := n.bus.Publish(ctx, events.NewAggregateEvent(EventTypeStatusChanged, aggregateID, env)); err != nil {
			return fmt.Errorf("publishing %s: %w", aggregateID, err)
		}
	}
	return nil
}

// ChangeLogger is an event bus subscriber that logs each published change.
type ChangeLogger struct {
	logger interfaces.Logger
}

// NewChangeLogger creates a subscriber logging to logger.
func NewChangeLogger(logger interfaces.Logger) *ChangeLogger {
	return &ChangeLogger{logger: logger}
}

// Handle logs the envelope carried by event.
func (h *ChangeLogger) Handle(ctx context.Context, event interfaces.Event) error {
	base, ok := event.(*events.BaseEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	env, ok := base.Payload.(Envelope)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", base.Payload, event.AggregateID())
	}

	h.logger.Info("Watch status changed",
		interfaces.Int64("account_id", env.AccountID),
		interfaces.Int64("profile_id", env.ProfileID),
		interfaces.String("operation", env.Operation),
		interfaces.String("entity", event.AggregateID()),
		interfaces.String("from", env.Change.From.String()),
		interfaces.String("to", env.Change.To.String()),
		interfaces.String("reason", env.Change.Reason))
	return nil
}

// EventType returns the event type the logger subscribes to.
func (h *ChangeLogger) EventType() string {
	return EventTypeStatusChanged
}

var _ interfaces.EventHandler = (*ChangeLogger)(nil)
