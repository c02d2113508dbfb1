package relay

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-service/internal/events"
	"delivery-service/pkg/kafka"
)

// Subscriber consumes a topic until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error) error
}

// Sink receives every decoded job event.
type Sink interface {
	Publish(ctx context.Context, ev events.JobEvent) error
}

// Relay consumes jobs.events and forwards each event to a local sink, so
// that live subscribers on every replica see every job change.
type Relay struct {
	sub     Subscriber
	sink    Sink
	groupID string
	log     *zap.Logger
}

// New creates a relay. Each relay joins its own consumer group, so every
// replica receives the full stream.
func New(sub Subscriber, sink Sink, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{
		sub:     sub,
		sink:    sink,
		groupID: "job-feed-" + uuid.NewString(),
		log:     log,
	}
}

// Run blocks until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("job event relay started", zap.String("group", r.groupID))
	return r.sub.Subscribe(ctx, kafka.TopicJobEvents, r.groupID, func(data []byte) error {
		return r.handle(ctx, data)
	})
}

func (r *Relay) handle(ctx context.Context, data []byte) error {
	var ev events.JobEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	if ev.JobID == "" {
		r.log.Warn("dropping job event without id", zap.String("type", string(ev.Type)))
		return nil
	}
	r.log.Debug("relaying job event",
		zap.String("type", string(ev.Type)),
		zap.String("job_id", ev.JobID),
		zap.String("status", ev.Status))
	return r.sink.Publish(ctx, ev)
}
