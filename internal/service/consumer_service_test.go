package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	level   string
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

var _ logger.ILogger = (*recordingLogger)(nil)

func (l *recordingLogger) add(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level, module, message, details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.add("debug", module, message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.add("info", module, message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.add("warn", module, message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.add("error", module, message, details)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) snapshot() []logLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logLine(nil), l.lines...)
}

func TestConsumerService_LogsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer bus.Close()

	eventLog := &recordingLogger{}
	appLog := &recordingLogger{}
	require.NoError(t, NewConsumerService(bus, "agent.events", eventLog, appLog).Consume(ctx))

	for _, e := range []events.Event{
		events.NewInteraction("route_query", map[string]interface{}{"category": "AGGREGATION"}),
		events.NewStageError("execute_query", "execution", "relation \"x\" does not exist"),
	} {
		payload, err := events.Marshal(e)
		require.NoError(t, err)
		require.NoError(t, bus.Publish("agent.events", message.NewMessage(watermill.NewUUID(), payload)))
	}
	require.NoError(t, bus.Publish("agent.events", message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	require.Eventually(t, func() bool {
		return len(eventLog.snapshot()) == 2 && len(appLog.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	byLevel := map[string]logLine{}
	for _, line := range eventLog.snapshot() {
		byLevel[line.level] = line
	}
	require.Contains(t, byLevel, "info")
	require.Contains(t, byLevel, "error")
	assert.Equal(t, "route_query", byLevel["info"].details["stage"])
	assert.Equal(t, events.TypeInteraction, byLevel["info"].details["event_type"])
	assert.Equal(t, "execution", byLevel["error"].details["category"])

	assert.Equal(t, "warn", appLog.snapshot()[0].level)
}
