// Package pipeline runs the question-to-answer stage graph:
//
//	check_cache -> (hit) format_response -> check_evidence
//	            -> (miss) route_query -> retrieve_schema -> parse_intent ->
//	               generate_sql -> validate_sql -> (valid) execute_query ->
//	               format_response -> check_evidence
//
// A failed stage appends its reasons to the request's error list and the
// run moves on. Only an invalid validate_sql result changes the route,
// skipping execute_query.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/observability"
	"sql-agent-be/pkg/schema"

	"go.opentelemetry.io/otel/attribute"
)

var ErrMissingCollaborator = errors.New("pipeline: missing collaborator")

// Deps are the collaborators the orchestrator is built from. Tracer and
// Logger are optional.
type Deps struct {
	Cache     Cache
	Router    QueryRouter
	Retriever schema.Retriever
	History   History
	Parser    IntentParser
	Generator SQLGenerator
	Validator SQLValidator
	Executor  QueryExecutor
	Formatter ResponseFormatter
	Checker   EvidenceChecker

	Tracer *observability.Tracer
	Logger logger.ILogger
}

type Orchestrator struct {
	tracer *observability.Tracer
	log    logger.ILogger

	checkCache     Stage
	routeQuery     Stage
	retrieveSchema Stage
	parseIntent    Stage
	generateSQL    Stage
	validateSQL    Stage
	executeQuery   Stage
	formatResponse Stage
	checkEvidence  Stage
}

func New(d Deps) (*Orchestrator, error) {
	required := []struct {
		name    string
		missing bool
	}{
		{"cache", d.Cache == nil},
		{"router", d.Router == nil},
		{"retriever", d.Retriever == nil},
		{"history", d.History == nil},
		{"parser", d.Parser == nil},
		{"generator", d.Generator == nil},
		{"validator", d.Validator == nil},
		{"executor", d.Executor == nil},
		{"formatter", d.Formatter == nil},
		{"checker", d.Checker == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("%w: %s", ErrMissingCollaborator, r.name)
		}
	}

	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Tracer == nil {
		d.Tracer = observability.NewTracer(d.Logger, nil)
	}

	b := base{tracer: d.Tracer, log: d.Logger}
	return &Orchestrator{
		tracer:         d.Tracer,
		log:            d.Logger,
		checkCache:     checkCacheStage{base: b, cache: d.Cache},
		routeQuery:     routeQueryStage{base: b, router: d.Router},
		retrieveSchema: retrieveSchemaStage{base: b, retriever: d.Retriever, history: d.History},
		parseIntent:    parseIntentStage{base: b, parser: d.Parser},
		generateSQL:    generateSQLStage{base: b, generator: d.Generator},
		validateSQL:    validateSQLStage{base: b, validator: d.Validator},
		executeQuery:   executeQueryStage{base: b, executor: d.Executor},
		formatResponse: formatResponseStage{base: b, formatter: d.Formatter, history: d.History, cache: d.Cache},
		checkEvidence:  checkEvidenceStage{base: b, checker: d.Checker},
	}, nil
}

// Ask builds a fresh request context and runs it.
func (o *Orchestrator) Ask(ctx context.Context, userID, sessionID, question string) *agentctx.Context {
	c := agentctx.New(userID, sessionID, question)
	o.Run(ctx, c)
	return c
}

// Run walks the graph for c. It never returns an error: every failure ends
// up in c.Errors and the formatted response explains it.
func (o *Orchestrator) Run(ctx context.Context, c *agentctx.Context) {
	ctx, span := o.tracer.StartStage(ctx, "pipeline",
		attribute.String("user_id", c.UserID),
		attribute.String("session_id", c.SessionID),
	)
	defer span.End()

	o.step(ctx, c, o.checkCache)
	if c.CacheHit {
		o.step(ctx, c, o.formatResponse)
		o.step(ctx, c, o.checkEvidence)
		o.finish(c)
		return
	}

	o.step(ctx, c, o.routeQuery)
	o.step(ctx, c, o.retrieveSchema)
	o.step(ctx, c, o.parseIntent)
	o.step(ctx, c, o.generateSQL)
	o.step(ctx, c, o.validateSQL)
	if c.Validation != nil && c.Validation.IsValid {
		o.step(ctx, c, o.executeQuery)
	}
	o.step(ctx, c, o.formatResponse)
	o.step(ctx, c, o.checkEvidence)
	o.finish(c)
}

func (o *Orchestrator) step(ctx context.Context, c *agentctx.Context, s Stage) {
	name := s.Name()
	c.Path = append(c.Path, name)

	ctx, span := o.tracer.StartStage(ctx, name)
	defer span.End()

	out := o.safeRun(ctx, c, s)
	if !out.IsFailed() {
		return
	}

	reasons := out.Reasons()
	if len(reasons) == 0 {
		reasons = []string{fmt.Sprintf("%s failed", name)}
	}
	for _, reason := range reasons {
		c.AddError(name, reason)
		o.tracer.LogError(ctx, name, string(out.Category()), reason)
	}
}

func (o *Orchestrator) safeRun(ctx context.Context, c *agentctx.Context, s Stage) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(CategoryStage, fmt.Sprintf("%s aborted: %v", s.Name(), r))
		}
	}()
	return s.Run(ctx, c)
}

func (o *Orchestrator) finish(c *agentctx.Context) {
	o.log.Info("PIPELINE", "Request finished", map[string]interface{}{
		"user_id":    c.UserID,
		"session_id": c.SessionID,
		"path":       c.Path,
		"cache_hit":  c.CacheHit,
		"errors":     len(c.Errors),
	})
}
