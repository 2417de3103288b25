package dto

import (
	"encoding/json"
	"time"
)

type InteractionResponse struct {
	Id        uint            `json:"id"`
	SessionId string          `json:"session_id"`
	Question  string          `json:"question"`
	SQLQuery  string          `json:"sql_query,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Success   bool            `json:"success"`
	Timestamp time.Time       `json:"timestamp"`
}

type HistoryStatsResponse struct {
	UserId               string  `json:"user_id"`
	TotalQueries         int64   `json:"total_queries"`
	SuccessfulQueries    int64   `json:"successful_queries"`
	AverageExecutionTime float64 `json:"avg_execution_time"`
}
