package events

import (
	"context"

	"delivery-service/pkg/kafka"
)

// Type names a job lifecycle event.
type Type string

const (
	JobCreated       Type = "job.created"
	JobAssigned      Type = "job.assigned"
	JobStatusChanged Type = "job.status_changed"
	JobProofUploaded Type = "job.proof_uploaded"
)

// JobEvent is published to jobs.events after every successful job write.
type JobEvent struct {
	Type           Type   `json:"type"`
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	AssignedDriver string `json:"assigned_driver,omitempty"`
	CreatedBy      string `json:"created_by"`
	Actor          string `json:"actor"`
	At             string `json:"at"`
}

// KafkaPublisher publishes job events to the jobs.events topic, keyed by job
// id so that events of one job stay ordered within a partition.
type KafkaPublisher struct {
	client *kafka.Client
}

// NewKafkaPublisher returns a publisher backed by client.
func NewKafkaPublisher(client *kafka.Client) *KafkaPublisher {
	return &KafkaPublisher{client: client}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev JobEvent) error {
	return p.client.Publish(ctx, kafka.TopicJobEvents, ev.JobID, ev)
}
