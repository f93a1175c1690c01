package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes every emitted event to the structured log. It doubles as
// the audit trail for low-volume deployments that run without a message broker.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		Str("event_id", event.ID).
		RawJSON("payload", event.Payload).
		Msg("domain event")
	return nil
}
