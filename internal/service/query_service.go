package service

import (
	"context"
	"errors"
	"strings"

	"sql-agent-be/internal/dto"
	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/semcache"

	"github.com/google/uuid"
)

var ErrEmptyQuestion = errors.New("question must not be empty")

// Asker runs one question through the agent graph.
type Asker interface {
	Ask(ctx context.Context, userID, sessionID, question string) *agentctx.Context
}

type IQueryService interface {
	Ask(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error)
	CacheStats(ctx context.Context) (*dto.CacheStatsResponse, error)
}

type queryService struct {
	agent        Asker
	cache        semcache.Cache
	cacheBackend string
	log          logger.ILogger
}

func NewQueryService(agent Asker, cache semcache.Cache, cacheBackend string, log logger.ILogger) IQueryService {
	return &queryService{
		agent:        agent,
		cache:        cache,
		cacheBackend: cacheBackend,
		log:          log,
	}
}

// Ask starts a new session when the request carries none.
func (s *queryService) Ask(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	question := strings.TrimSpace(request.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	c := s.agent.Ask(ctx, request.UserId, sessionId, question)

	s.log.Info("QUERY", "Question answered", map[string]interface{}{
		"user_id":    request.UserId,
		"session_id": sessionId,
		"cache_hit":  c.CacheHit,
		"errors":     len(c.Errors),
	})

	return toQueryResponse(c), nil
}

func (s *queryService) CacheStats(ctx context.Context) (*dto.CacheStatsResponse, error) {
	stats, err := s.cache.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.CacheStatsResponse{
		Backend: s.cacheBackend,
		Entries: stats.Count,
		Hits:    stats.Hits,
		HitRate: stats.HitRate,
	}, nil
}

func toQueryResponse(c *agentctx.Context) *dto.QueryResponse {
	res := &dto.QueryResponse{
		SessionId: c.SessionID,
		Response:  c.FormattedResponse,
		SQLQuery:  c.GeneratedSQL,
		FromCache: c.CacheHit,
		Category:  string(c.Category),
		Strategy:  string(c.Strategy),
		Path:      c.Path,
		Errors:    make([]dto.QueryErrorDTO, 0, len(c.Errors)),
	}

	if c.Validation != nil {
		res.EstimatedCost = c.Validation.EstimatedCost.String()
	}
	if c.Execution != nil {
		res.RowCount = c.Execution.RowCount
		res.Truncated = c.Execution.Truncated
		res.ExecutionTime = c.Execution.ExecutionTime
	}
	if c.Evidence != nil {
		issues := c.Evidence.Issues
		if issues == nil {
			issues = []string{}
		}
		res.Evidence = &dto.EvidenceDTO{
			IsCorrect: c.Evidence.IsCorrect,
			Issues:    issues,
			Corrected: c.ResponseCorrected,
			Skipped:   c.Evidence.Skipped,
		}
	}
	for _, e := range c.Errors {
		res.Errors = append(res.Errors, dto.QueryErrorDTO{Stage: e.Stage, Message: e.Message})
	}
	return res
}
