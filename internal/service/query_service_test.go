package service

import (
	"context"
	"testing"

	"sql-agent-be/internal/dto"
	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/semcache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	calls []string
	build func(c *agentctx.Context)
}

func (f *fakeAsker) Ask(_ context.Context, userID, sessionID, question string) *agentctx.Context {
	f.calls = append(f.calls, sessionID)
	c := agentctx.New(userID, sessionID, question)
	if f.build != nil {
		f.build(c)
	}
	return c
}

func TestQueryService_Ask(t *testing.T) {
	agent := &fakeAsker{build: func(c *agentctx.Context) {
		c.Category = agentctx.CategoryAggregation
		c.Strategy = agentctx.StrategySQLDirect
		c.GeneratedSQL = "SELECT COUNT(*) FROM clientes"
		c.Validation = &agentctx.ValidationResult{IsValid: true, EstimatedCost: agentctx.CostLow}
		c.Execution = &agentctx.ExecutionResult{Success: true, RowCount: 1, ExecutionTime: 0.004}
		c.FormattedResponse = "Temos 5 clientes."
		c.Evidence = &agentctx.EvidenceCheck{IsCorrect: true}
		c.Path = []string{"check_cache", "route_query"}
	}}
	svc := NewQueryService(agent, semcache.NewMemoryStore(), "memory", logger.NewNop())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{UserId: "u1", SessionId: "s1", Question: "  Quantos clientes temos?  "})
	require.NoError(t, err)

	assert.Equal(t, "s1", res.SessionId)
	assert.Equal(t, "Temos 5 clientes.", res.Response)
	assert.Equal(t, "AGGREGATION", res.Category)
	assert.Equal(t, "sql_direct", res.Strategy)
	assert.Equal(t, "LOW", res.EstimatedCost)
	assert.Equal(t, 1, res.RowCount)
	require.NotNil(t, res.Evidence)
	assert.Equal(t, []string{}, res.Evidence.Issues)
	assert.Empty(t, res.Errors)
}

func TestQueryService_AskAssignsSession(t *testing.T) {
	agent := &fakeAsker{}
	svc := NewQueryService(agent, semcache.NewMemoryStore(), "memory", logger.NewNop())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{UserId: "u1", Question: "Quais produtos existem?"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(res.SessionId)
	assert.NoError(t, parseErr)
	assert.Equal(t, []string{res.SessionId}, agent.calls)
}

func TestQueryService_AskRejectsBlankQuestion(t *testing.T) {
	agent := &fakeAsker{}
	svc := NewQueryService(agent, semcache.NewMemoryStore(), "memory", logger.NewNop())

	_, err := svc.Ask(context.Background(), &dto.QueryRequest{UserId: "u1", Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, agent.calls)
}

func TestQueryService_ErrorsAreListed(t *testing.T) {
	agent := &fakeAsker{build: func(c *agentctx.Context) {
		c.AddError("validate_sql", "Dangerous operation detected: DROP")
	}}
	svc := NewQueryService(agent, semcache.NewMemoryStore(), "memory", logger.NewNop())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{UserId: "u1", Question: "apague tudo"})
	require.NoError(t, err)
	assert.Equal(t, []dto.QueryErrorDTO{{Stage: "validate_sql", Message: "Dangerous operation detected: DROP"}}, res.Errors)
	assert.Nil(t, res.Evidence)
}

func TestQueryService_CacheStats(t *testing.T) {
	ctx := context.Background()
	cache := semcache.NewMemoryStore()
	require.NoError(t, cache.Save(ctx, "Quantos clientes?", "SELECT COUNT(*) FROM clientes", &agentctx.ExecutionResult{Success: true}))
	_, err := cache.Check(ctx, "quantos clientes")
	require.NoError(t, err)

	svc := NewQueryService(&fakeAsker{}, cache, "memory", logger.NewNop())
	stats, err := svc.CacheStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 0.5, stats.HitRate)
}
