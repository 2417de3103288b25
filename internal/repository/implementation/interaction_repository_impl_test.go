package implementation

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"sql-agent-be/internal/entity"
	"sql-agent-be/internal/repository/contract"
	"sql-agent-be/internal/repository/specification"
	"sql-agent-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) contract.InteractionRepository {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo, err := NewInteractionRepository(db)
	require.NoError(t, err)
	return repo
}

func TestInteractionRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	in := &entity.Interaction{
		UserId:        "u1",
		SessionId:     "s1",
		Question:      "Quantos clientes temos?",
		SQLQuery:      "SELECT COUNT(*) FROM clientes",
		Result:        json.RawMessage(`{"success":true,"row_count":1}`),
		Success:       true,
		ExecutionTime: 0.012,
		Metadata:      map[string]any{"category": "AGGREGATION"},
	}
	require.NoError(t, repo.Create(ctx, in))
	assert.NotZero(t, in.Id)
	assert.False(t, in.Timestamp.IsZero())

	found, err := repo.FindAll(ctx, specification.ByUserID{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "SELECT COUNT(*) FROM clientes", found[0].SQLQuery)
	assert.Equal(t, "AGGREGATION", found[0].Metadata["category"])
	assert.JSONEq(t, `{"success":true,"row_count":1}`, string(found[0].Result))
}

func TestInteractionRepository_OrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, q := range []struct{ session, question string }{
		{"s1", "primeira"},
		{"s2", "outra sessao"},
		{"s1", "segunda"},
		{"s1", "terceira"},
	} {
		require.NoError(t, repo.Create(ctx, &entity.Interaction{UserId: "u1", SessionId: q.session, Question: q.question}))
	}
	require.NoError(t, repo.Create(ctx, &entity.Interaction{UserId: "u2", SessionId: "s1", Question: "de outro usuario"}))

	session, err := repo.FindAll(ctx,
		specification.ByUserID{UserID: "u1"},
		specification.BySessionID{SessionID: "s1"},
		specification.Chronological{},
	)
	require.NoError(t, err)
	require.Len(t, session, 3)
	assert.Equal(t, []string{"primeira", "segunda", "terceira"}, questions(session))

	latest, err := repo.FindAll(ctx,
		specification.ByUserID{UserID: "u1"},
		specification.Chronological{Desc: true},
		specification.Limit{N: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"terceira", "segunda"}, questions(latest))

	count, err := repo.Count(ctx, specification.ByUserID{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInteractionRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	stats, err := repo.Stats(ctx, specification.ByUserID{UserID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, &entity.InteractionStats{}, stats)

	for _, i := range []entity.Interaction{
		{UserId: "u1", SessionId: "s", Question: "a", Success: true, ExecutionTime: 0.1},
		{UserId: "u1", SessionId: "s", Question: "b", Success: true, ExecutionTime: 0.2},
		{UserId: "u1", SessionId: "s", Question: "c", Success: true, ExecutionTime: 0.2},
		{UserId: "u1", SessionId: "s", Question: "d", Success: false, ExecutionTime: 9},
	} {
		i := i
		require.NoError(t, repo.Create(ctx, &i))
	}

	stats, err = repo.Stats(ctx, specification.ByUserID{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalQueries)
	assert.Equal(t, int64(3), stats.SuccessfulQueries)
	assert.Equal(t, 0.167, stats.AverageExecutionTime)
}

func questions(items []*entity.Interaction) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Question
	}
	return out
}
