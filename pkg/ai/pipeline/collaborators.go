package pipeline

import (
	"context"

	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/ai/evidence"
	"sql-agent-be/pkg/ai/intent"
	"sql-agent-be/pkg/ai/response"
	"sql-agent-be/pkg/ai/router"
	"sql-agent-be/pkg/ai/sqlgen"
	"sql-agent-be/pkg/schema"
	"sql-agent-be/pkg/semcache"
	"sql-agent-be/pkg/sqlexec"
	"sql-agent-be/pkg/sqlguard"
)

type Cache interface {
	Check(ctx context.Context, question string) (*semcache.Entry, error)
	Save(ctx context.Context, question, sql string, result *agentctx.ExecutionResult) error
}

type QueryRouter interface {
	Route(ctx context.Context, question string) (router.Decision, error)
}

// History reads earlier turns of a session and records finished requests.
type History interface {
	SessionTurns(ctx context.Context, userID, sessionID string, limit int) ([]agentctx.Turn, error)
	Record(ctx context.Context, c *agentctx.Context) error
}

type IntentParser interface {
	Parse(ctx context.Context, question, schemaContext string) (*agentctx.ParsedIntent, error)
}

type SQLGenerator interface {
	Generate(ctx context.Context, req sqlgen.Request) (string, error)
}

type SQLValidator interface {
	Validate(sql string) *agentctx.ValidationResult
}

type QueryExecutor interface {
	Run(ctx context.Context, sql string, validation *agentctx.ValidationResult) *agentctx.ExecutionResult
}

type ResponseFormatter interface {
	Format(ctx context.Context, in response.Input) (string, error)
}

type EvidenceChecker interface {
	Check(ctx context.Context, in evidence.Input) (*agentctx.EvidenceCheck, error)
}

var (
	_ Cache             = (semcache.Cache)(nil)
	_ QueryRouter       = (*router.Router)(nil)
	_ IntentParser      = (*intent.Parser)(nil)
	_ SQLGenerator      = (*sqlgen.Generator)(nil)
	_ SQLValidator      = (*sqlguard.Validator)(nil)
	_ QueryExecutor     = (*sqlexec.Executor)(nil)
	_ ResponseFormatter = (*response.Formatter)(nil)
	_ EvidenceChecker   = (*evidence.Checker)(nil)
	_ schema.Retriever  = (*schema.MultiLayerRetriever)(nil)
)
