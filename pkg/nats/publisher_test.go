package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.agent.interaction", Subject(events.TypeInteraction))
}

func TestPublish(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}

	p, err := NewPublisher(url, logger.NewNop())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, events.NewInteraction("check_cache", map[string]interface{}{"hit": false})))
}
