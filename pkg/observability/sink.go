package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	DefaultTopic    = "agent.events"
	DefaultCapacity = 256

	remoteTimeout = 2 * time.Second
)

// Publisher is an optional remote destination such as NATS JetStream.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Sink queues events and forwards them from a single goroutine. Emit never
// blocks; a full queue drops the event.
type Sink struct {
	queue  chan events.Event
	bus    message.Publisher
	topic  string
	remote Publisher
	log    logger.ILogger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// NewSink starts the forwarding goroutine. remote may be nil.
func NewSink(bus message.Publisher, topic string, remote Publisher, log logger.ILogger, capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if topic == "" {
		topic = DefaultTopic
	}

	s := &Sink{
		queue:  make(chan events.Event, capacity),
		bus:    bus,
		topic:  topic,
		remote: remote,
		log:    log,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit reports whether the event was queued.
func (s *Sink) Emit(e events.Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.queue <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits for the queue to drain.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)

	for e := range s.queue {
		s.forward(e)
	}
}

func (s *Sink) forward(e events.Event) {
	payload, err := events.Marshal(e)
	if err != nil {
		s.log.Error("OBSERVABILITY", "Failed to encode event", map[string]interface{}{
			"type":  e.EventType(),
			"error": err.Error(),
		})
		return
	}

	if s.bus != nil {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("type", e.EventType())
		if err := s.bus.Publish(s.topic, msg); err != nil {
			s.log.Warn("OBSERVABILITY", "Failed to publish event to bus", map[string]interface{}{
				"topic": s.topic,
				"error": err.Error(),
			})
		}
	}

	if s.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		if err := s.remote.Publish(ctx, e); err != nil {
			s.log.Warn("OBSERVABILITY", "Failed to publish event remotely", map[string]interface{}{
				"type":  e.EventType(),
				"error": err.Error(),
			})
		}
		cancel()
	}
}
