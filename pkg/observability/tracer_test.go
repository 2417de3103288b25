package observability

import (
	"context"
	"testing"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestTracerEmitsEvents(t *testing.T) {
	remote := &recordingPublisher{}
	sink := NewSink(nil, "", remote, logger.NewNop(), 8)
	tr := NewTracer(logger.NewNop(), sink)

	ctx, span := tr.StartStage(context.Background(), "validate_sql")
	tr.LogInteraction("validate_sql", map[string]interface{}{"is_valid": false})
	tr.LogError(ctx, "validate_sql", "validation", "Dangerous pattern detected: DROP")
	span.End()

	sink.Close()
	if assert.Equal(t, 2, remote.count()) {
		assert.Equal(t, events.TypeInteraction, remote.got[0].EventType())
		assert.Equal(t, events.TypeStageError, remote.got[1].EventType())
		assert.Equal(t, "validation", remote.got[1].Payload()["category"])
	}
}

func TestTracerWithoutSink(t *testing.T) {
	tr := NewTracer(logger.NewNop(), nil)
	assert.NotPanics(t, func() {
		tr.LogInteraction("check_cache", nil)
		tr.LogError(context.Background(), "check_cache", "store", "locked")
	})
}
