package evidence

import (
	"context"
	"errors"
	"testing"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  agentctx.EvidenceCheck
	}{
		{
			name:  "correct",
			reply: `{"is_correct": true, "issues": []}`,
			want:  agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}},
		},
		{
			name:  "corrected in fence",
			reply: "```json\n{\"is_correct\": false, \"issues\": [\"total errado\"], \"corrected_response\": \" Temos 5 clientes. \"}\n```",
			want:  agentctx.EvidenceCheck{IsCorrect: false, Issues: []string{"total errado"}, CorrectedResponse: "Temos 5 clientes."},
		},
		{
			name:  "null correction",
			reply: `{"is_correct": false, "issues": ["x"], "corrected_response": null}`,
			want:  agentctx.EvidenceCheck{IsCorrect: false, Issues: []string{"x"}},
		},
		{
			name:  "malformed",
			reply: "tudo certo!",
			want:  agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}},
		},
		{
			name:  "missing verdict",
			reply: `{"issues": ["?"]}`,
			want:  agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, &tt.want, parseVerdict(tt.reply))
		})
	}
}

func TestCheckSendsDataAndResponse(t *testing.T) {
	stub := llmtest.New().Default(`{"is_correct": true, "issues": []}`)
	c := NewChecker(stub, logger.NewNop())

	exec := &agentctx.ExecutionResult{
		Success: true,
		Data:    []agentctx.Row{agentctx.NewRow([]string{"count"}, []any{int64(5)})},
	}
	got, err := c.Check(context.Background(), Input{Question: "Quantos clientes?", SQL: "SELECT COUNT(*) FROM clientes", Execution: exec, Response: "Temos 5 clientes."})
	require.NoError(t, err)
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 1, stub.CallCount(`"count": 5`))
	assert.Equal(t, 1, stub.CallCount("Resposta formatada: Temos 5 clientes."))
}

func TestCheckProviderError(t *testing.T) {
	c := NewChecker(llmtest.New().Fail("Audite", errors.New("down")), logger.NewNop())

	_, err := c.Check(context.Background(), Input{Question: "q"})
	assert.Error(t, err)
}
