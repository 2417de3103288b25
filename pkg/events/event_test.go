package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInteractionCopiesData(t *testing.T) {
	data := map[string]interface{}{"sql": "SELECT 1"}
	e := NewInteraction("generate_sql", data)

	assert.Equal(t, TypeInteraction, e.EventType())
	assert.Equal(t, "generate_sql", e.Payload()["stage"])
	assert.NotContains(t, data, "stage")
	assert.False(t, e.Timestamp().IsZero())
}

func TestEnvelope(t *testing.T) {
	e := NewStageError("validate_sql", "validation", "Dangerous pattern detected: DROP")

	raw, err := Marshal(e)
	require.NoError(t, err)

	got, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeStageError, got.Type)
	assert.Equal(t, "validation", got.Data["category"])
	assert.True(t, e.OccurredAt.Equal(got.OccurredAt))

	_, err = Unmarshal([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = Unmarshal([]byte(`nope`))
	assert.Error(t, err)
}
