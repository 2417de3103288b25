// Package sqlexec runs validated queries in fixed-size batches with a hard
// row ceiling.
package sqlexec

import (
	"context"
	"fmt"
	"math"
	"time"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
)

const (
	DefaultBatchSize        = 100
	DefaultMaxRows          = 1000
	DefaultStatementTimeout = 30 * time.Second

	// Extra time on top of the statement timeout before the client gives up.
	clientGrace  = 5 * time.Second
	closeTimeout = 5 * time.Second

	msgValidationFailed = "Query validation failed"
)

type Config struct {
	BatchSize        int
	MaxRows          int
	StatementTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:        DefaultBatchSize,
		MaxRows:          DefaultMaxRows,
		StatementTimeout: DefaultStatementTimeout,
	}
}

type Executor struct {
	sessions SessionFactory
	cfg      Config
	log      logger.ILogger
}

func NewExecutor(sessions SessionFactory, cfg Config, log logger.ILogger) *Executor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.StatementTimeout < 0 {
		cfg.StatementTimeout = DefaultStatementTimeout
	}
	return &Executor{sessions: sessions, cfg: cfg, log: log}
}

func (e *Executor) Config() Config {
	return e.cfg
}

// Execute runs the context's generated SQL. It refuses to run unless the
// context carries a valid validation result.
func (e *Executor) Execute(ctx context.Context, c *agentctx.Context) *agentctx.ExecutionResult {
	return e.Run(ctx, c.GeneratedSQL, c.Validation)
}

// Run never returns an error; every failure is folded into the result.
func (e *Executor) Run(ctx context.Context, sql string, validation *agentctx.ValidationResult) (result *agentctx.ExecutionResult) {
	start := time.Now()

	if validation == nil || !validation.IsValid {
		e.log.Warn("EXECUTOR", "Refusing to execute unvalidated query", map[string]interface{}{
			"sql": sql,
		})
		return agentctx.FailedExecution(msgValidationFailed, 0)
	}
	if e.sessions == nil {
		return agentctx.FailedExecution("no database session factory configured", 0)
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("EXECUTOR", "Execution panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			result = agentctx.FailedExecution(fmt.Sprintf("execution aborted: %v", r), elapsedSeconds(start))
		}
	}()

	if e.cfg.StatementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StatementTimeout+clientGrace)
		defer cancel()
	}

	sess, err := e.sessions.Acquire(ctx)
	if err != nil {
		return e.fail(sql, err, start)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		sess.Close(closeCtx)
	}()

	if err := sess.Open(ctx, sql, e.cfg.StatementTimeout); err != nil {
		return e.fail(sql, err, start)
	}

	var (
		columns   []string
		rows      [][]any
		truncated bool
	)
	for {
		want := e.cfg.BatchSize
		if remaining := e.cfg.MaxRows - len(rows); remaining < want {
			want = remaining
		}

		cols, batch, err := sess.Fetch(ctx, want)
		if err != nil {
			return e.fail(sql, err, start)
		}
		if columns == nil {
			columns = cols
		}
		if len(batch) > want {
			batch = batch[:want]
		}
		for _, values := range batch {
			rows = append(rows, normalizeRow(values))
		}

		if len(batch) < want {
			break
		}
		if len(rows) >= e.cfg.MaxRows {
			_, extra, err := sess.Fetch(ctx, 1)
			if err != nil {
				e.log.Warn("EXECUTOR", "Truncation probe failed, assuming more rows", map[string]interface{}{
					"error": err.Error(),
				})
				truncated = true
			} else {
				truncated = len(extra) > 0
			}
			break
		}
	}

	data := make([]agentctx.Row, len(rows))
	for i, values := range rows {
		data[i] = agentctx.NewRow(columns, values)
	}

	res := &agentctx.ExecutionResult{
		Success:       true,
		Columns:       columns,
		Data:          data,
		RowCount:      len(data),
		Truncated:     truncated,
		ExecutionTime: elapsedSeconds(start),
	}

	e.log.Info("EXECUTOR", "Query executed", map[string]interface{}{
		"row_count":      res.RowCount,
		"truncated":      res.Truncated,
		"execution_time": res.ExecutionTime,
	})
	return res
}

func (e *Executor) fail(sql string, err error, start time.Time) *agentctx.ExecutionResult {
	e.log.Error("EXECUTOR", "Query execution failed", map[string]interface{}{
		"sql":   sql,
		"error": err.Error(),
	})
	return agentctx.FailedExecution(err.Error(), elapsedSeconds(start))
}

func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*1000) / 1000
}
