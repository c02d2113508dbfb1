package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Well-known topic names.
const (
	TopicJobEvents = "jobs.events"
)

// Client wraps Kafka operations.
type Client struct {
	brokers []string
	writer  *kafkago.Writer
	log     *zap.Logger
}

// NewClient returns a Client connected to the given brokers.
func NewClient(brokers []string, log *zap.Logger) *Client {
	return &Client{
		brokers: brokers,
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		log: log,
	}
}

// EnsureTopics creates topics if they don't already exist (with retry).
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	for attempt := 1; attempt <= 20; attempt++ {
		conn, err := kafkago.DialContext(ctx, "tcp", c.brokers[0])
		if err != nil {
			c.log.Info("kafka not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		configs := make([]kafkago.TopicConfig, len(topics))
		for i, t := range topics {
			configs[i] = kafkago.TopicConfig{
				Topic:             t,
				NumPartitions:     3,
				ReplicationFactor: 1,
			}
		}

		err = conn.CreateTopics(configs...)
		conn.Close()
		if err != nil {
			c.log.Info("topic creation returned (may already exist)", zap.Error(err))
		}
		c.log.Info("kafka topics ensured", zap.Strings("topics", topics))
		return nil
	}
	return fmt.Errorf("kafka: could not connect after 20 attempts")
}

// Publish sends a JSON-serialised message to a topic.
func (c *Client) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

// Subscribe reads from a topic until ctx is done, calling handler for every
// message. Handler errors are logged and the message is skipped.
func (c *Client) Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error) error {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kafka read error", zap.String("topic", topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if err := handler(msg.Value); err != nil {
			c.log.Warn("kafka handler error", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Close flushes and closes the shared writer.
func (c *Client) Close() error { return c.writer.Close() }
