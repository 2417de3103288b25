package intent

import (
	"context"
	"errors"
	"testing"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantIntent string
		wantErr    bool
	}{
		{
			name:       "bare json",
			reply:      `{"intent":"AGGREGATE","entities":{"tables":["clientes"]},"aggregations":["COUNT"]}`,
			wantIntent: "AGGREGATE",
		},
		{
			name:       "fenced json with prose",
			reply:      "Claro!\n```json\n{\"intent\": \"JOIN\", \"joins\": [\"clientes-transacoes\"]}\n```",
			wantIntent: "JOIN",
		},
		{
			name:    "not json",
			reply:   "Não consigo entender",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(llmtest.New().Default(tt.reply), logger.NewNop())

			got, err := p.Parse(context.Background(), "Quantos clientes?", "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.NotNil(t, got.Entities)
			assert.NotNil(t, got.Filters)
		})
	}
}

func TestParseSendsSchemaContext(t *testing.T) {
	stub := llmtest.New().Default(`{"intent":"SELECT"}`)
	p := NewParser(stub, logger.NewNop())

	_, err := p.Parse(context.Background(), "Liste produtos", "")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.CallCount(noSchema))

	_, err = p.Parse(context.Background(), "Liste produtos", "=== SCHEMA ===")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.CallCount("=== SCHEMA ==="))
}

func TestParseProviderError(t *testing.T) {
	p := NewParser(llmtest.New().Fail("Liste", errors.New("down")), logger.NewNop())

	_, err := p.Parse(context.Background(), "Liste produtos", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NLP parsing failed")
}
