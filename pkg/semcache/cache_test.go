package semcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/database"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and punctuation", "Quantos clientes?", "quantos clientes"},
		{"already normal", "quantos clientes", "quantos clientes"},
		{"inner whitespace", "  Quantos \t clientes\n temos?!  ", "quantos clientes temos"},
		{"trailing dots", "Liste os produtos...", "liste os produtos"},
		{"inner punctuation kept", "Total de 2024-01?", "total de 2024-01"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestKeyIgnoresCasePunctuationAndSpacing(t *testing.T) {
	assert.Equal(t, Key("Quantos clientes?"), Key("quantos clientes"))
	assert.Equal(t, Key("Quantos   clientes temos?"), Key("quantos clientes temos"))
	assert.NotEqual(t, Key("quantos clientes"), Key("quantos produtos"))
	assert.Len(t, Key("x"), 64)
}

func TestNewStats(t *testing.T) {
	assert.Equal(t, Stats{}, newStats(0, 0))
	assert.Equal(t, Stats{Count: 2, Hits: 0, HitRate: 0}, newStats(2, 2))
	assert.Equal(t, Stats{Count: 2, Hits: 2, HitRate: 0.5}, newStats(2, 4))
}

func sampleResult() *agentctx.ExecutionResult {
	return &agentctx.ExecutionResult{
		Success:  true,
		Columns:  []string{"total"},
		Data:     []agentctx.Row{agentctx.NewRow([]string{"total"}, []any{5.0})},
		RowCount: 1,
	}
}

// exerciseCache runs the shared contract against any backend.
func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	miss, err := c.Check(ctx, "Quantos clientes temos?")
	require.NoError(t, err)
	assert.Nil(t, miss)

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Count)

	require.NoError(t, c.Save(ctx, "Quantos clientes temos?", "SQL1", sampleResult()))

	hit, err := c.Check(ctx, "quantos clientes temos")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "SQL1", hit.SQLQuery)
	assert.Equal(t, int64(2), hit.HitCount)

	res, err := hit.ExecutionResult()
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.RowCount)

	again, err := c.Check(ctx, "QUANTOS CLIENTES TEMOS?")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, hit.HitCount+1, again.HitCount)

	// upsert keeps the counter and replaces the query
	require.NoError(t, c.Save(ctx, "Quantos clientes temos?", "SQL2", sampleResult()))
	after, err := c.Check(ctx, "Quantos clientes temos?")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, "SQL2", after.SQLQuery)
	assert.Equal(t, again.HitCount+1, after.HitCount)

	stats, err = c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, int64(3), stats.Hits)
	assert.InDelta(t, 0.75, stats.HitRate, 0.0001)
}

func TestMemoryStore(t *testing.T) {
	exerciseCache(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)

	store, err := NewSQLStore(db)
	require.NoError(t, err)

	exerciseCache(t, store)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	defer rdb.Close()

	prefix := "semcache_test_" + filepath.Base(t.TempDir())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
	})

	exerciseCache(t, NewRedisStore(rdb, prefix))
}
