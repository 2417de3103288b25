package router

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

func TestParseCategory(t *testing.T) {
	tests := []struct {
		reply string
		want  agentctx.Category
	}{
		{"AGGREGATION", agentctx.CategoryAggregation},
		{"  structural\n", agentctx.CategoryStructural},
		{"Categoria: SEARCH.", agentctx.CategorySearch},
		{"**ANALYTICS**", agentctx.CategoryAnalytics},
		{"não sei", agentctx.CategoryUnknown},
		{"", agentctx.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.reply))
		})
	}
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, agentctx.StrategySchemaOnly, StrategyFor(agentctx.CategoryStructural))
	assert.Equal(t, agentctx.StrategySQLDirect, StrategyFor(agentctx.CategoryAggregation))
	assert.Equal(t, agentctx.StrategyFilteredRAG, StrategyFor(agentctx.CategorySearch))
	assert.Equal(t, agentctx.StrategyFullPipeline, StrategyFor(agentctx.CategoryAnalytics))
	assert.Equal(t, agentctx.StrategyFullPipeline, StrategyFor(agentctx.CategoryUnknown))
}

func TestRoute(t *testing.T) {
	stub := llmtest.New().On("Quantos clientes", "AGGREGATION").Default("talvez")
	r := NewRouter(stub, logger.NewNop())

	d, err := r.Route(context.Background(), "Quantos clientes temos?")
	require.NoError(t, err)
	assert.Equal(t, Decision{Category: agentctx.CategoryAggregation, Strategy: agentctx.StrategySQLDirect}, d)

	d, err = r.Route(context.Background(), "Algo estranho")
	require.NoError(t, err)
	assert.True(t, d.Fallback)
	assert.Equal(t, agentctx.StrategyFullPipeline, d.Strategy)
}

func TestRouteProviderError(t *testing.T) {
	stub := llmtest.New().Fail("Pergunta", errors.New("timeout"))
	r := NewRouter(stub, logger.NewNop())

	d, err := r.Route(context.Background(), "Quantos clientes temos?")
	assert.Error(t, err)
	assert.True(t, d.Fallback)
	assert.Equal(t, agentctx.StrategyFullPipeline, d.Strategy)
}
