package entity

import (
	"encoding/json"
	"time"
)

type Interaction struct {
	Id            uint
	UserId        string
	SessionId     string
	Question      string
	SQLQuery      string
	Result        json.RawMessage
	Success       bool
	ExecutionTime float64
	Metadata      map[string]any
	Timestamp     time.Time
}

// InteractionStats aggregates one user's history.
type InteractionStats struct {
	TotalQueries         int64
	SuccessfulQueries    int64
	AverageExecutionTime float64
}
