// Package semcache maps normalized questions to a previously generated query
// and its result.
package semcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"sql-agent-be/pkg/agentctx"
)

// Entry is one cached question. HitCount starts at 1 on the first save.
type Entry struct {
	QuestionHash string    `json:"question_hash"`
	Question     string    `json:"question"`
	SQLQuery     string    `json:"sql_query"`
	Result       string    `json:"result"`
	HitCount     int64     `json:"hit_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
}

// ExecutionResult decodes the stored result and marks it as served from cache.
func (e *Entry) ExecutionResult() (*agentctx.ExecutionResult, error) {
	var res agentctx.ExecutionResult
	if err := json.Unmarshal([]byte(e.Result), &res); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	if res.Data == nil {
		res.Data = []agentctx.Row{}
	}
	res.FromCache = true
	return &res, nil
}

type Stats struct {
	Count   int64   `json:"count"`
	Hits    int64   `json:"hits"`
	HitRate float64 `json:"hit_rate"`
}

// newStats derives hit figures from the entry count and the summed hit
// counters. The first save contributes 1 to each counter without being a hit.
func newStats(count, hitCountSum int64) Stats {
	hits := hitCountSum - count
	if hits < 0 {
		hits = 0
	}
	s := Stats{Count: count, Hits: hits}
	if total := hits + count; total > 0 {
		s.HitRate = math.Round(float64(hits)/float64(total)*10000) / 10000
	}
	return s
}

// Cache is the contract every backend implements. Check returns nil, nil on
// a miss; a hit increments the counter atomically. Save upserts by key and
// never resets the counter.
type Cache interface {
	Check(ctx context.Context, question string) (*Entry, error)
	Save(ctx context.Context, question, sql string, result *agentctx.ExecutionResult) error
	Statistics(ctx context.Context) (Stats, error)
}

// Normalize lowercases, trims, collapses whitespace and strips terminal
// punctuation so trivially different phrasings share one key.
func Normalize(question string) string {
	s := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return s
}

// Key is the hex SHA-256 of the normalized question.
func Key(question string) string {
	sum := sha256.Sum256([]byte(Normalize(question)))
	return hex.EncodeToString(sum[:])
}

func encodeResult(result *agentctx.ExecutionResult) (string, error) {
	if result == nil {
		return "{}", nil
	}
	stored := *result
	stored.FromCache = false
	raw, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(raw), nil
}
