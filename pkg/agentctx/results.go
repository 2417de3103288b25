package agentctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Cost is an ordered cost tier: CostLow < CostMedium < CostHigh < CostVeryHigh.
type Cost int

const (
	CostLow Cost = iota
	CostMedium
	CostHigh
	CostVeryHigh
)

var costNames = [...]string{"low", "medium", "high", "very_high"}

func (c Cost) String() string {
	if c < CostLow || c > CostVeryHigh {
		return fmt.Sprintf("cost(%d)", int(c))
	}
	return costNames[c]
}

// Promote returns the next tier, saturating at CostVeryHigh.
func (c Cost) Promote() Cost {
	if c >= CostVeryHigh {
		return CostVeryHigh
	}
	return c + 1
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range costNames {
		if name == s {
			*c = Cost(i)
			return nil
		}
	}
	return fmt.Errorf("unknown cost tier %q", s)
}

// ValidationResult is produced fresh by every validation call.
type ValidationResult struct {
	IsValid       bool     `json:"is_valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Optimizations []string `json:"optimizations"`
	EstimatedCost Cost     `json:"estimated_cost"`
	EstimatedRows int64    `json:"estimated_rows"`
	OptimizedSQL  string   `json:"optimized_sql"`
}

// InvalidResult builds a rejected result carrying a single error.
func InvalidResult(sql, message string) *ValidationResult {
	return &ValidationResult{
		IsValid:       false,
		Errors:        []string{message},
		Warnings:      []string{},
		Optimizations: []string{},
		EstimatedCost: CostLow,
		OptimizedSQL:  sql,
	}
}

// Row maps column name to value, keeping column order.
type Row = *orderedmap.OrderedMap[string, any]

func NewRow(columns []string, values []any) Row {
	row := orderedmap.New[string, any](len(columns))
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row.Set(col, v)
	}
	return row
}

// ExecutionResult is immutable once returned by the executor.
type ExecutionResult struct {
	Success       bool     `json:"success"`
	Columns       []string `json:"columns,omitempty"`
	Data          []Row    `json:"data"`
	RowCount      int      `json:"row_count"`
	Truncated     bool     `json:"truncated"`
	ExecutionTime float64  `json:"execution_time"`
	Error         string   `json:"error,omitempty"`
	FromCache     bool     `json:"from_cache,omitempty"`
}

func FailedExecution(message string, elapsed float64) *ExecutionResult {
	return &ExecutionResult{
		Success:       false,
		Data:          []Row{},
		ExecutionTime: elapsed,
		Error:         message,
	}
}

// DataJSON renders the rows as indented JSON with non-ASCII text kept as is.
func (r *ExecutionResult) DataJSON() string {
	if r == nil || len(r.Data) == 0 {
		return "[]"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Data); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}
