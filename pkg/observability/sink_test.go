package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	got     []events.Event
	entered chan struct{}
	release chan struct{}
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	if p.entered != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestSinkForwardsToBusAndRemote(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	messages, err := bus.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	remote := &recordingPublisher{}
	sink := NewSink(bus, "", remote, logger.NewNop(), 8)

	require.True(t, sink.Emit(events.NewStageError("execute_query", "execution", "relation does not exist")))

	select {
	case msg := <-messages:
		msg.Ack()
		got, err := events.Unmarshal(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, events.TypeStageError, got.Type)
		assert.Equal(t, "execute_query", got.Data["stage"])
		assert.Equal(t, events.TypeStageError, msg.Metadata.Get("type"))
	case <-ctx.Done():
		t.Fatal("event not delivered to bus")
	}

	sink.Close()
	assert.Equal(t, 1, remote.count())
}

func TestSinkDropsWhenFull(t *testing.T) {
	remote := &recordingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	sink := NewSink(nil, "", remote, logger.NewNop(), 1)

	require.True(t, sink.Emit(events.NewInteraction("a", nil)))
	<-remote.entered // worker is now stalled on the first event

	assert.True(t, sink.Emit(events.NewInteraction("b", nil)))
	assert.False(t, sink.Emit(events.NewInteraction("c", nil)))
	assert.Equal(t, int64(1), sink.Dropped())

	close(remote.release)
	go func() {
		for range remote.entered {
		}
	}()
	sink.Close()
	assert.Equal(t, 2, remote.count())
}

func TestSinkRemoteErrorDoesNotStopForwarding(t *testing.T) {
	remote := &recordingPublisher{err: errors.New("nats down")}
	sink := NewSink(nil, "", remote, logger.NewNop(), 4)

	sink.Emit(events.NewInteraction("a", nil))
	sink.Emit(events.NewInteraction("b", nil))
	sink.Close()

	assert.Equal(t, 2, remote.count())
	assert.False(t, sink.Emit(events.NewInteraction("late", nil)))
	sink.Close()
}
