package service

import (
	"context"
	"encoding/json"
	"fmt"

	"sql-agent-be/internal/dto"
	"sql-agent-be/internal/entity"
	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/internal/repository/contract"
	"sql-agent-be/internal/repository/specification"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/ai/pipeline"
)

const DefaultHistoryLimit = 10

type IHistoryService interface {
	pipeline.History

	UserHistory(ctx context.Context, userId string, limit int) ([]*dto.InteractionResponse, error)
	SessionContext(ctx context.Context, userId, sessionId string) ([]*dto.InteractionResponse, error)
	Statistics(ctx context.Context, userId string) (*dto.HistoryStatsResponse, error)
}

type historyService struct {
	repo contract.InteractionRepository
	log  logger.ILogger
}

func NewHistoryService(repo contract.InteractionRepository, log logger.ILogger) IHistoryService {
	return &historyService{repo: repo, log: log}
}

// Record stores the finished request. The full execution result and a
// snapshot of the request context travel as JSON.
func (s *historyService) Record(ctx context.Context, c *agentctx.Context) error {
	interaction := &entity.Interaction{
		UserId:    c.UserID,
		SessionId: c.SessionID,
		Question:  c.Question(),
		SQLQuery:  c.GeneratedSQL,
		Success:   c.ExecutionSucceeded(),
		Metadata:  c.Snapshot(),
	}

	if c.Execution != nil {
		raw, err := json.Marshal(c.Execution)
		if err != nil {
			return fmt.Errorf("encode execution result: %w", err)
		}
		interaction.Result = raw
		interaction.ExecutionTime = c.Execution.ExecutionTime
	}

	if err := s.repo.Create(ctx, interaction); err != nil {
		return fmt.Errorf("save interaction: %w", err)
	}

	s.log.Debug("HISTORY", "Interaction saved", map[string]interface{}{
		"user_id":    c.UserID,
		"session_id": c.SessionID,
		"id":         interaction.Id,
	})
	return nil
}

// SessionTurns returns the latest limit turns of the session, oldest first.
func (s *historyService) SessionTurns(ctx context.Context, userId, sessionId string, limit int) ([]agentctx.Turn, error) {
	items, err := s.repo.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.BySessionID{SessionID: sessionId},
		specification.Chronological{Desc: true},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	turns := make([]agentctx.Turn, len(items))
	for i, item := range items {
		turns[len(items)-1-i] = agentctx.Turn{
			Question:  item.Question,
			SQLQuery:  item.SQLQuery,
			Success:   item.Success,
			Timestamp: item.Timestamp,
		}
	}
	return turns, nil
}

// UserHistory returns the user's most recent interactions, newest first.
func (s *historyService) UserHistory(ctx context.Context, userId string, limit int) ([]*dto.InteractionResponse, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	items, err := s.repo.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.Chronological{Desc: true},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}
	return toInteractionResponses(items), nil
}

// SessionContext returns every interaction of the session, oldest first.
func (s *historyService) SessionContext(ctx context.Context, userId, sessionId string) ([]*dto.InteractionResponse, error) {
	items, err := s.repo.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.BySessionID{SessionID: sessionId},
		specification.Chronological{},
	)
	if err != nil {
		return nil, err
	}
	return toInteractionResponses(items), nil
}

func (s *historyService) Statistics(ctx context.Context, userId string) (*dto.HistoryStatsResponse, error) {
	stats, err := s.repo.Stats(ctx, specification.ByUserID{UserID: userId})
	if err != nil {
		return nil, err
	}

	return &dto.HistoryStatsResponse{
		UserId:               userId,
		TotalQueries:         stats.TotalQueries,
		SuccessfulQueries:    stats.SuccessfulQueries,
		AverageExecutionTime: stats.AverageExecutionTime,
	}, nil
}

func toInteractionResponses(items []*entity.Interaction) []*dto.InteractionResponse {
	res := make([]*dto.InteractionResponse, 0, len(items))
	for _, item := range items {
		res = append(res, &dto.InteractionResponse{
			Id:        item.Id,
			SessionId: item.SessionId,
			Question:  item.Question,
			SQLQuery:  item.SQLQuery,
			Result:    item.Result,
			Success:   item.Success,
			Timestamp: item.Timestamp,
		})
	}
	return res
}
