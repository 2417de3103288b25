package semcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sql-agent-be/pkg/agentctx"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "semcache"

// touchScript bumps an existing entry and returns it; a missing key stays
// missing.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
redis.call('HINCRBY', KEYS[1], 'hit_count', 1)
redis.call('HSET', KEYS[1], 'last_used', ARGV[1])
return redis.call('HGETALL', KEYS[1])
`)

// RedisStore shares the cache between processes. Each entry is a hash; a set
// indexes all keys for statistics.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

var _ Cache = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) entryKey(hash string) string {
	return s.prefix + ":entry:" + hash
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":keys"
}

func (s *RedisStore) Check(ctx context.Context, question string) (*Entry, error) {
	hash := Key(question)
	now := s.now().UTC().Format(time.RFC3339Nano)

	raw, err := touchScript.Run(ctx, s.rdb, []string{s.entryKey(hash)}, now).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis touch: %w", err)
	}

	fields := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		k, _ := raw[i].(string)
		v, _ := raw[i+1].(string)
		fields[k] = v
	}
	return entryFromHash(hash, fields), nil
}

func (s *RedisStore) Save(ctx context.Context, question, sql string, result *agentctx.ExecutionResult) error {
	encoded, err := encodeResult(result)
	if err != nil {
		return err
	}
	hash := Key(question)
	key := s.entryKey(hash)
	now := s.now().UTC().Format(time.RFC3339Nano)

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"question", question,
			"sql_query", sql,
			"result", encoded,
			"last_used", now,
		)
		pipe.HSetNX(ctx, key, "hit_count", 1)
		pipe.HSetNX(ctx, key, "created_at", now)
		pipe.SAdd(ctx, s.indexKey(), hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (s *RedisStore) Statistics(ctx context.Context) (Stats, error) {
	hashes, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis index: %w", err)
	}
	if len(hashes) == 0 {
		return newStats(0, 0), nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(hashes))
	for i, h := range hashes {
		cmds[i] = pipe.HGet(ctx, s.entryKey(h), "hit_count")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, fmt.Errorf("redis hit counts: %w", err)
	}

	var count, total int64
	for _, cmd := range cmds {
		n, err := cmd.Int64()
		if err != nil {
			continue
		}
		count++
		total += n
	}
	return newStats(count, total), nil
}

func entryFromHash(hash string, f map[string]string) *Entry {
	hits, _ := strconv.ParseInt(f["hit_count"], 10, 64)
	created, _ := time.Parse(time.RFC3339Nano, f["created_at"])
	used, _ := time.Parse(time.RFC3339Nano, f["last_used"])
	return &Entry{
		QuestionHash: hash,
		Question:     f["question"],
		SQLQuery:     f["sql_query"],
		Result:       f["result"],
		HitCount:     hits,
		CreatedAt:    created,
		LastUsed:     used,
	}
}
