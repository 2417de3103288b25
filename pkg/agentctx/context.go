package agentctx

import (
	"time"
)

// Strategy controls how much retrieval work retrieve_schema performs.
type Strategy string

const (
	StrategySchemaOnly   Strategy = "schema_only"
	StrategySQLDirect    Strategy = "sql_direct"
	StrategyFilteredRAG  Strategy = "filtered_rag"
	StrategyFullPipeline Strategy = "full_pipeline"
)

// Category is the routing classification returned by the model.
type Category string

const (
	CategoryStructural  Category = "STRUCTURAL"
	CategoryAggregation Category = "AGGREGATION"
	CategorySearch      Category = "SEARCH"
	CategoryAnalytics   Category = "ANALYTICS"
	CategoryUnknown     Category = "UNKNOWN"
)

// StageError is one entry of the append-only error list.
type StageError struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ParsedIntent is the structured reading of the question.
type ParsedIntent struct {
	Intent       string         `json:"intent"`
	Entities     map[string]any `json:"entities"`
	Filters      map[string]any `json:"filters"`
	Aggregations []string       `json:"aggregations"`
	Joins        []string       `json:"joins"`
}

// Turn is a previous interaction of the same session.
type Turn struct {
	Question  string    `json:"question"`
	SQLQuery  string    `json:"sql_query"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// EvidenceCheck is the audit verdict on the formatted response.
type EvidenceCheck struct {
	IsCorrect         bool     `json:"is_correct"`
	Issues            []string `json:"issues"`
	CorrectedResponse string   `json:"corrected_response,omitempty"`
	Skipped           bool     `json:"skipped,omitempty"`
}

// Context is the per-request record threaded through every pipeline stage.
// A Context is owned by exactly one pipeline run and is not safe for
// concurrent use.
type Context struct {
	UserID    string
	SessionID string
	CreatedAt time.Time

	question string

	// Routing
	Category Category
	Strategy Strategy

	// Cache
	CacheHit bool

	// Retrieval
	SchemaContext       string
	SchemaMetadata      map[string]any
	SchemaStatistics    string
	ConversationHistory []Turn

	Intent            *ParsedIntent
	GeneratedSQL      string
	Validation        *ValidationResult
	Execution         *ExecutionResult
	FormattedResponse string

	Evidence          *EvidenceCheck
	ResponseCorrected bool

	// Path lists the stages that ran, in order.
	Path []string

	Errors   []StageError
	Metadata map[string]any
}

func New(userID, sessionID, question string) *Context {
	return &Context{
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: time.Now(),
		question:  question,
		Metadata:  make(map[string]any),
	}
}

// Question returns the original question text.
func (c *Context) Question() string {
	return c.question
}

func (c *Context) AddError(stage, message string) {
	c.Errors = append(c.Errors, StageError{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (c *Context) HasErrors() bool {
	return len(c.Errors) > 0
}

// ErrorMessages returns the accumulated error texts in insertion order.
func (c *Context) ErrorMessages() []string {
	msgs := make([]string, len(c.Errors))
	for i, e := range c.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

func (c *Context) SetMetadata(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
}

// Visited reports whether the named stage ran for this request.
func (c *Context) Visited(stage string) bool {
	for _, s := range c.Path {
		if s == stage {
			return true
		}
	}
	return false
}

// ExecutionSucceeded reports whether real data is available for formatting.
func (c *Context) ExecutionSucceeded() bool {
	return c.Execution != nil && c.Execution.Success
}

// Snapshot returns a serializable view used for history metadata.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{
		"user_id":    c.UserID,
		"session_id": c.SessionID,
		"created_at": c.CreatedAt.Format(time.RFC3339),
		"category":   c.Category,
		"strategy":   c.Strategy,
		"cache_hit":  c.CacheHit,
		"path":       c.Path,
		"errors":     c.Errors,
	}
	if c.Intent != nil {
		snap["parsed_intent"] = c.Intent
	}
	if c.Validation != nil {
		snap["validation"] = c.Validation
	}
	if c.Evidence != nil {
		snap["evidence_check"] = c.Evidence
		snap["response_corrected"] = c.ResponseCorrected
	}
	for k, v := range c.Metadata {
		if _, taken := snap[k]; !taken {
			snap[k] = v
		}
	}
	return snap
}
