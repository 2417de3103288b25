package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/internal/repository/implementation"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryService(t *testing.T) IHistoryService {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo, err := implementation.NewInteractionRepository(db)
	require.NoError(t, err)
	return NewHistoryService(repo, logger.NewNop())
}

func answered(user, session, question, sql string, elapsed float64) *agentctx.Context {
	c := agentctx.New(user, session, question)
	c.GeneratedSQL = sql
	c.Category = agentctx.CategoryAggregation
	c.Path = []string{"check_cache", "format_response"}
	c.Execution = &agentctx.ExecutionResult{
		Success:       true,
		Columns:       []string{"count"},
		Data:          []agentctx.Row{agentctx.NewRow([]string{"count"}, []any{int64(5)})},
		RowCount:      1,
		ExecutionTime: elapsed,
	}
	return c
}

func TestHistoryService_RecordAndSessionTurns(t *testing.T) {
	ctx := context.Background()
	svc := newHistoryService(t)

	for i := 1; i <= 7; i++ {
		c := answered("u1", "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("SELECT %d", i), 0.01)
		require.NoError(t, svc.Record(ctx, c))
	}
	require.NoError(t, svc.Record(ctx, answered("u1", "other", "elsewhere", "SELECT 0", 0.01)))

	turns, err := svc.SessionTurns(ctx, "u1", "s1", 5)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	assert.Equal(t, "q3", turns[0].Question)
	assert.Equal(t, "q7", turns[4].Question)
	assert.True(t, turns[4].Success)

	empty, err := svc.SessionTurns(ctx, "u1", "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistoryService_RecordFailedRequest(t *testing.T) {
	ctx := context.Background()
	svc := newHistoryService(t)

	c := agentctx.New("u1", "s1", "DELETE tudo")
	c.AddError("validate_sql", "Dangerous operation detected: DELETE")
	require.NoError(t, svc.Record(ctx, c))

	items, err := svc.SessionContext(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Success)
	assert.Empty(t, items[0].Result)
}

func TestHistoryService_UserHistoryAndStatistics(t *testing.T) {
	ctx := context.Background()
	svc := newHistoryService(t)

	require.NoError(t, svc.Record(ctx, answered("u1", "s1", "primeira", "SELECT 1", 0.1)))
	require.NoError(t, svc.Record(ctx, answered("u1", "s2", "segunda", "SELECT 2", 0.3)))
	failed := agentctx.New("u1", "s2", "terceira")
	failed.Execution = agentctx.FailedExecution("boom", 2)
	require.NoError(t, svc.Record(ctx, failed))

	history, err := svc.UserHistory(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "terceira", history[0].Question)
	assert.Equal(t, "segunda", history[1].Question)

	var result struct {
		Success  bool `json:"success"`
		RowCount int  `json:"row_count"`
	}
	require.NoError(t, json.Unmarshal(history[1].Result, &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RowCount)

	all, err := svc.UserHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := svc.Statistics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", stats.UserId)
	assert.Equal(t, int64(3), stats.TotalQueries)
	assert.Equal(t, int64(2), stats.SuccessfulQueries)
	assert.Equal(t, 0.2, stats.AverageExecutionTime)
}
