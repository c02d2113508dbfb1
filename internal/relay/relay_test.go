package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/events"
	"delivery-service/pkg/kafka"
)

// replaySubscriber feeds canned messages to the handler and returns.
type replaySubscriber struct {
	messages [][]byte
	topic    string
	group    string
	errs     []error
}

func (s *replaySubscriber) Subscribe(_ context.Context, topic, groupID string, handler func([]byte) error) error {
	s.topic, s.group = topic, groupID
	for _, m := range s.messages {
		s.errs = append(s.errs, handler(m))
	}
	return nil
}

type recordingSink struct{ got []events.JobEvent }

func (s *recordingSink) Publish(_ context.Context, ev events.JobEvent) error {
	s.got = append(s.got, ev)
	return nil
}

func TestRelay_ForwardsDecodedEvents(t *testing.T) {
	ev := events.JobEvent{Type: events.JobAssigned, JobID: "job-1", Status: "ASSIGNED", AssignedDriver: "d1"}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	sub := &replaySubscriber{messages: [][]byte{raw, []byte("{not json"), []byte(`{"type":"job.created"}`)}}
	sink := &recordingSink{}

	require.NoError(t, New(sub, sink, nil).Run(context.Background()))

	assert.Equal(t, kafka.TopicJobEvents, sub.topic)
	assert.Contains(t, sub.group, "job-feed-")
	require.Len(t, sink.got, 1)
	assert.Equal(t, ev, sink.got[0])
	require.Len(t, sub.errs, 3)
	assert.NoError(t, sub.errs[0])
	assert.Error(t, sub.errs[1])
	assert.NoError(t, sub.errs[2])
}

func TestRelay_GroupsAreUnique(t *testing.T) {
	a := New(&replaySubscriber{}, &recordingSink{}, nil)
	b := New(&replaySubscriber{}, &recordingSink{}, nil)
	assert.NotEqual(t, a.groupID, b.groupID)
}
