package services

import "context"

// Mutation event names emitted by the services.
const (
	EventEntryCreated    = "entry.created"
	EventEntryDeleted    = "entry.deleted"
	EventTaxonomyChanged = "taxonomy.changed"
)

// Events publishes mutation events. Publishing is best-effort: failures
// are the publisher's concern and never fail the originating request.
type Events interface {
	Publish(ctx context.Context, event string, payload any)
}

// NoopEvents discards all events. Used when no event backend is configured.
type NoopEvents struct{}

func (NoopEvents) Publish(context.Context, string, any) {}
