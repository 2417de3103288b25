// Package evidence audits a formatted answer against the rows it was built from.
package evidence

import (
	"context"
	"fmt"
	"strings"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm"
)

const systemPrompt = `Você é um auditor de respostas SQL.

Sua missão: verificar se a resposta formatada está 100% baseada nos dados reais.

REGRAS:
1. Compare a resposta com os dados JSON
2. Se houver informação que não está nos dados, marque como INCORRETO
3. Se números não batem, marque como INCORRETO

Retorne JSON:
{
    "is_correct": true/false,
    "issues": ["lista de problemas"],
    "corrected_response": "resposta corrigida (se necessário)"
}`

type Checker struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewChecker(provider llm.LLMProvider, log logger.ILogger) *Checker {
	return &Checker{llm: provider, logger: log}
}

type Input struct {
	Question  string
	SQL       string
	Execution *agentctx.ExecutionResult
	Response  string
}

// Check returns a provider error unchanged; an unparseable verdict is
// treated as correct.
func (c *Checker) Check(ctx context.Context, in Input) (*agentctx.EvidenceCheck, error) {
	reply, err := c.llm.Chat(ctx, llm.SystemUser(systemPrompt, fmt.Sprintf(
		"Pergunta: %s\n\nSQL: %s\n\nDados REAIS: %s\n\nResposta formatada: %s\n\nAudite:",
		in.Question, in.SQL, in.Execution.DataJSON(), in.Response,
	)), llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("Evidence check failed: %w", err)
	}

	verdict := parseVerdict(reply)
	if !verdict.IsCorrect {
		c.logger.Warn("EVIDENCE", "Response disagrees with data", map[string]interface{}{
			"issues": verdict.Issues,
		})
	}
	return verdict, nil
}

func parseVerdict(reply string) *agentctx.EvidenceCheck {
	var raw struct {
		IsCorrect         *bool    `json:"is_correct"`
		Issues            []string `json:"issues"`
		CorrectedResponse *string  `json:"corrected_response"`
	}
	if err := llm.DecodeJSON(reply, &raw); err != nil || raw.IsCorrect == nil {
		return &agentctx.EvidenceCheck{IsCorrect: true, Issues: []string{}}
	}

	out := &agentctx.EvidenceCheck{
		IsCorrect: *raw.IsCorrect,
		Issues:    raw.Issues,
	}
	if out.Issues == nil {
		out.Issues = []string{}
	}
	if raw.CorrectedResponse != nil {
		out.CorrectedResponse = strings.TrimSpace(*raw.CorrectedResponse)
	}
	return out
}
