package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	err error
}

func (stubEvent) Subject() string { return "vending.test" }

func (e stubEvent) Payload() ([]byte, error) { return []byte(`{}`), e.err }

// recordingJetStream records publishes; every other JetStream method panics.
type recordingJetStream struct {
	jetstream.JetStream
	subjects []string
	err      error
}

func (r *recordingJetStream) Publish(_ context.Context, subject string, _ []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	r.subjects = append(r.subjects, subject)
	if r.err != nil {
		return nil, r.err
	}
	return &jetstream.PubAck{Stream: streamName}, nil
}

func Test_NatsPublisher_Publish(t *testing.T) {
	js := &recordingJetStream{}
	p := NewNatsPublisher(js)

	require.NoError(t, p.Publish(context.Background(), stubEvent{}))
	assert.Equal(t, []string{"vending.test"}, js.subjects)

	err := p.Publish(context.Background(), stubEvent{err: errors.New("encode")})
	assert.ErrorContains(t, err, "failed to get event payload")
	assert.Len(t, js.subjects, 1)

	js.err = errors.New("no responders")
	assert.Error(t, p.Publish(context.Background(), stubEvent{}))
}
