package pipeline

import (
	"context"
	"fmt"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/ai/evidence"
	"sql-agent-be/pkg/ai/response"
	"sql-agent-be/pkg/ai/sqlgen"
	"sql-agent-be/pkg/observability"
	"sql-agent-be/pkg/schema"
)

const (
	StageCheckCache     = "check_cache"
	StageRouteQuery     = "route_query"
	StageRetrieveSchema = "retrieve_schema"
	StageParseIntent    = "parse_intent"
	StageGenerateSQL    = "generate_sql"
	StageValidateSQL    = "validate_sql"
	StageExecuteQuery   = "execute_query"
	StageFormatResponse = "format_response"
	StageCheckEvidence  = "check_evidence"
)

// Stage is one node of the graph. Run reports failures through the Outcome
// and never through a panic.
type Stage interface {
	Name() string
	Run(ctx context.Context, c *agentctx.Context) Outcome
}

type base struct {
	tracer *observability.Tracer
	log    logger.ILogger
}

type checkCacheStage struct {
	base
	cache Cache
}

func (checkCacheStage) Name() string { return StageCheckCache }

// Store errors count as a miss.
func (s checkCacheStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	entry, err := s.cache.Check(ctx, c.Question())
	if err != nil {
		s.log.Warn("CACHE", "Cache lookup failed, treating as miss", map[string]interface{}{
			"error": err.Error(),
		})
		return Ok()
	}
	if entry == nil {
		s.tracer.LogInteraction(StageCheckCache, map[string]interface{}{"hit": false})
		return Ok()
	}

	result, err := entry.ExecutionResult()
	if err != nil {
		s.log.Warn("CACHE", "Cached result unreadable, treating as miss", map[string]interface{}{
			"error": err.Error(),
		})
		return Ok()
	}

	c.CacheHit = true
	c.GeneratedSQL = entry.SQLQuery
	c.Execution = result
	c.SetMetadata("cache_hit_count", entry.HitCount)

	s.tracer.LogInteraction(StageCheckCache, map[string]interface{}{
		"hit":       true,
		"hit_count": entry.HitCount,
	})
	return Ok()
}

type routeQueryStage struct {
	base
	router QueryRouter
}

func (routeQueryStage) Name() string { return StageRouteQuery }

func (s routeQueryStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	d, err := s.router.Route(ctx, c.Question())
	c.Category = d.Category
	c.Strategy = d.Strategy
	if c.Strategy == "" {
		c.Strategy = agentctx.StrategyFullPipeline
	}

	if err != nil || d.Fallback {
		c.SetMetadata("routing_fallback", true)
	}

	s.tracer.LogInteraction(StageRouteQuery, map[string]interface{}{
		"category": c.Category,
		"strategy": c.Strategy,
	})
	return Ok()
}

type retrieveSchemaStage struct {
	base
	retriever schema.Retriever
	history   History
}

func (retrieveSchemaStage) Name() string { return StageRetrieveSchema }

func (s retrieveSchemaStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	turns, err := s.history.SessionTurns(ctx, c.UserID, c.SessionID, sqlgen.MaxHistoryTurns)
	if err != nil {
		s.log.Warn("HISTORY", "Failed to load session history", map[string]interface{}{
			"session_id": c.SessionID,
			"error":      err.Error(),
		})
	}
	c.ConversationHistory = turns

	depth := schema.DepthFor(c.Strategy)
	bundle, err := s.retriever.Retrieve(ctx, c.Question(), depth)
	if err != nil {
		return Failed(CategoryStage, fmt.Sprintf("Schema retrieval failed: %v", err))
	}

	c.SchemaContext = bundle.Text
	c.SchemaStatistics = bundle.Statistics
	c.SchemaMetadata = make(map[string]any, len(bundle.Metadata))
	for name, meta := range bundle.Metadata {
		c.SchemaMetadata[name] = meta
	}
	c.SetMetadata("schema_retrieval_strategy", c.Strategy)

	s.tracer.LogInteraction(StageRetrieveSchema, map[string]interface{}{
		"depth":         depth.String(),
		"tables":        len(bundle.Metadata),
		"documents":     len(bundle.Documents),
		"history_turns": len(turns),
	})
	return Ok()
}

type parseIntentStage struct {
	base
	parser IntentParser
}

func (parseIntentStage) Name() string { return StageParseIntent }

func (s parseIntentStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	parsed, err := s.parser.Parse(ctx, c.Question(), c.SchemaContext)
	if err != nil {
		return Failed(CategoryStage, err.Error())
	}
	c.Intent = parsed

	s.tracer.LogInteraction(StageParseIntent, map[string]interface{}{
		"intent": parsed.Intent,
	})
	return Ok()
}

type generateSQLStage struct {
	base
	generator SQLGenerator
}

func (generateSQLStage) Name() string { return StageGenerateSQL }

func (s generateSQLStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	sql, err := s.generator.Generate(ctx, sqlgen.Request{
		Question:      c.Question(),
		SchemaContext: c.SchemaContext,
		Intent:        c.Intent,
		History:       c.ConversationHistory,
	})
	if err != nil {
		return Failed(CategoryStage, err.Error())
	}
	c.GeneratedSQL = sql

	s.tracer.LogInteraction(StageGenerateSQL, map[string]interface{}{
		"sql": sql,
	})
	return Ok()
}

type validateSQLStage struct {
	base
	validator SQLValidator
}

func (validateSQLStage) Name() string { return StageValidateSQL }

// An empty query is rejected by the validator itself.
func (s validateSQLStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	v := s.validator.Validate(c.GeneratedSQL)
	c.Validation = v
	if v.IsValid && v.OptimizedSQL != "" {
		c.GeneratedSQL = v.OptimizedSQL
	}

	s.tracer.LogInteraction(StageValidateSQL, map[string]interface{}{
		"is_valid":       v.IsValid,
		"estimated_cost": v.EstimatedCost.String(),
		"warnings":       len(v.Warnings),
		"optimizations":  len(v.Optimizations),
	})

	if !v.IsValid {
		return Failed(CategoryValidation, v.Errors...)
	}
	return Ok()
}

type executeQueryStage struct {
	base
	executor QueryExecutor
}

func (executeQueryStage) Name() string { return StageExecuteQuery }

func (s executeQueryStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	result := s.executor.Run(ctx, c.GeneratedSQL, c.Validation)
	c.Execution = result

	s.tracer.LogInteraction(StageExecuteQuery, map[string]interface{}{
		"success":        result.Success,
		"row_count":      result.RowCount,
		"truncated":      result.Truncated,
		"execution_time": result.ExecutionTime,
	})

	if !result.Success {
		return Failed(CategoryExecution, result.Error)
	}
	return Ok()
}

type formatResponseStage struct {
	base
	formatter ResponseFormatter
	history   History
	cache     Cache
}

func (formatResponseStage) Name() string { return StageFormatResponse }

// Persistence failures here are logged and never reach the caller.
func (s formatResponseStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	text, formatErr := s.formatter.Format(ctx, response.Input{
		Question:  c.Question(),
		SQL:       c.GeneratedSQL,
		Execution: c.Execution,
		Errors:    c.ErrorMessages(),
	})
	c.FormattedResponse = text

	if err := s.history.Record(ctx, c); err != nil {
		s.log.Error("HISTORY", "Failed to record interaction", map[string]interface{}{
			"session_id": c.SessionID,
			"error":      err.Error(),
		})
	}

	if !c.CacheHit && c.ExecutionSucceeded() {
		if err := s.cache.Save(ctx, c.Question(), c.GeneratedSQL, c.Execution); err != nil {
			s.log.Error("CACHE", "Failed to store cache entry", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.tracer.LogInteraction(StageFormatResponse, map[string]interface{}{
		"response_length": len(text),
	})

	if formatErr != nil {
		return Failed(CategoryStage, formatErr.Error())
	}
	return Ok()
}

type checkEvidenceStage struct {
	base
	checker EvidenceChecker
}

func (checkEvidenceStage) Name() string { return StageCheckEvidence }

// Only answers built from real rows are audited.
func (s checkEvidenceStage) Run(ctx context.Context, c *agentctx.Context) Outcome {
	if !c.ExecutionSucceeded() || c.FormattedResponse == "" {
		c.Evidence = &agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}, Skipped: true}
		return Ok()
	}

	verdict, err := s.checker.Check(ctx, evidence.Input{
		Question:  c.Question(),
		SQL:       c.GeneratedSQL,
		Execution: c.Execution,
		Response:  c.FormattedResponse,
	})
	if err != nil {
		s.log.Warn("EVIDENCE", "Evidence check unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		c.Evidence = &agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}, Skipped: true}
		c.SetMetadata("evidence_error", err.Error())
		return Ok()
	}

	c.Evidence = verdict
	if !verdict.IsCorrect && verdict.CorrectedResponse != "" {
		c.FormattedResponse = verdict.CorrectedResponse
		c.ResponseCorrected = true
	}

	s.tracer.LogInteraction(StageCheckEvidence, map[string]interface{}{
		"is_correct":   verdict.IsCorrect,
		"issues_count": len(verdict.Issues),
		"corrected":    c.ResponseCorrected,
	})
	return Ok()
}
