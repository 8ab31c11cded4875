// Package events publishes mutation events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifelog/apiserver/internal/mq"
)

// Publisher emits typed mutation events on a single channel. Publishing is
// best-effort: broker failures are logged and never surface to the request
// that triggered the event.
type Publisher struct {
	mq      *mq.MQ
	channel string
	logger  zerolog.Logger
}

// NewPublisher constructs a Publisher on the given channel.
func NewPublisher(queue *mq.MQ, channel string, logger zerolog.Logger) *Publisher {
	return &Publisher{mq: queue, channel: channel, logger: logger}
}

// envelope is the wire shape of every published event.
type envelope struct {
	Event   string          `json:"event"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Publish encodes and sends one event. Implements services.Events.
func (p *Publisher) Publish(ctx context.Context, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("event", event).Msg("encode event payload")
		return
	}

	data, err := json.Marshal(envelope{Event: event, At: time.Now().UTC(), Payload: raw})
	if err != nil {
		p.logger.Error().Err(err).Str("event", event).Msg("encode event envelope")
		return
	}

	if _, err := p.mq.Publish(ctx, p.channel, data, map[string]string{"event": event}); err != nil {
		p.logger.Error().Err(err).Str("event", event).Msg("publish event")
	}
}

// Close closes the underlying broker connection.
func (p *Publisher) Close() error {
	return p.mq.Close()
}
