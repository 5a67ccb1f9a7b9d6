package notify

import (
	"context"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/internal/watchstatus/service"
)

// Envelope is the wire form of a single status change.
type Envelope struct {
	AccountID int64               `json:"account_id"`
	ProfileID int64               `json:"profile_id"`
	Operation string              `json:"operation"`
	Change    domain.StatusChange `json:"change"`
}

// Envelopes splits a batch into one envelope per change, keeping order.
func Envelopes(batch domain.ChangeBatch) []Envelope {
	out := make([]Envelope, len(batch.Changes))
	for i, change := range batch.Changes {
		out[i] = Envelope{
			AccountID: batch.AccountID,
			ProfileID: batch.ProfileID,
			Operation: batch.Operation,
			Change:    change,
		}
	}
	return out
}

// NoopNotifier drops every batch.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that publishes nothing.
func NewNoopNotifier() NoopNotifier {
	return NoopNotifier{}
}

func (NoopNotifier) Notify(ctx context.Context, batch domain.ChangeBatch) error {
	return nil
}

var (
	_ service.ChangeNotifier = NoopNotifier{}
	_ service.ChangeNotifier = (*NATSNotifier)(nil)
	_ service.ChangeNotifier = (*KafkaNotifier)(nil)
	_ service.ChangeNotifier = (*EventBusNotifier)(nil)
)
