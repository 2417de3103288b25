package dto

type QueryRequest struct {
	UserId    string `json:"user_id" validate:"required,max=128"`
	SessionId string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Question  string `json:"question" validate:"required,min=2,max=2000"`
}

type QueryErrorDTO struct {
	Stage   string `json:"stage"`
	Message string `json:"error"`
}

type EvidenceDTO struct {
	IsCorrect bool     `json:"is_correct"`
	Issues    []string `json:"issues"`
	Corrected bool     `json:"corrected"`
	Skipped   bool     `json:"skipped"`
}

type QueryResponse struct {
	SessionId     string          `json:"session_id"`
	Response      string          `json:"response"`
	SQLQuery      string          `json:"sql_query,omitempty"`
	FromCache     bool            `json:"from_cache"`
	Category      string          `json:"category,omitempty"`
	Strategy      string          `json:"strategy,omitempty"`
	EstimatedCost string          `json:"estimated_cost,omitempty"`
	RowCount      int             `json:"row_count"`
	Truncated     bool            `json:"truncated"`
	ExecutionTime float64         `json:"execution_time"`
	Evidence      *EvidenceDTO    `json:"evidence,omitempty"`
	Path          []string        `json:"path"`
	Errors        []QueryErrorDTO `json:"errors"`
}
