package semcache

import (
	"context"
	"sync"
	"time"

	"sql-agent-be/pkg/agentctx"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local cache. Entries never expire.
type MemoryStore struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

var _ Cache = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (s *MemoryStore) Check(ctx context.Context, question string) (*Entry, error) {
	key := Key(question)

	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.items.Get(key)
	if !found {
		return nil, nil
	}
	entry := x.(*Entry)
	entry.HitCount++
	entry.LastUsed = s.now()

	copied := *entry
	return &copied, nil
}

func (s *MemoryStore) Save(ctx context.Context, question, sql string, result *agentctx.ExecutionResult) error {
	encoded, err := encodeResult(result)
	if err != nil {
		return err
	}
	key := Key(question)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.items.Get(key); found {
		entry := x.(*Entry)
		entry.Question = question
		entry.SQLQuery = sql
		entry.Result = encoded
		entry.LastUsed = now
		return nil
	}

	s.items.Set(key, &Entry{
		QuestionHash: key,
		Question:     question,
		SQLQuery:     sql,
		Result:       encoded,
		HitCount:     1,
		CreatedAt:    now,
		LastUsed:     now,
	}, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Statistics(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count, total int64
	for _, item := range s.items.Items() {
		count++
		total += item.Object.(*Entry).HitCount
	}
	return newStats(count, total), nil
}
