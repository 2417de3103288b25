// Package sqlgen turns a parsed question into a single PostgreSQL SELECT.
package sqlgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm"
)

// MaxHistoryTurns bounds how many earlier turns are shown to the model.
const MaxHistoryTurns = 5

var ErrEmptySQL = errors.New("model returned no SQL")

const systemPrompt = `Você é um especialista em PostgreSQL.
Gere uma query SQL segura, otimizada e correta baseada na intenção do usuário.

REGRAS IMPORTANTES:
1. Use apenas SELECT para leitura de dados
2. Use JOINs apropriados quando necessário
3. Use aliases para melhor legibilidade
4. Adicione LIMIT quando apropriado para evitar retornos excessivos
5. Use índices quando disponíveis
6. Prefira INNER JOIN a menos que especificado diferente
7. Gere uma única instrução

Retorne APENAS a query SQL, sem explicações ou markdown.

Schema disponível:
%s`

type Generator struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{llm: provider, logger: log}
}

// Request carries everything the prompt is built from.
type Request struct {
	Question      string
	SchemaContext string
	Intent        *agentctx.ParsedIntent
	History       []agentctx.Turn
}

func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	reply, err := g.llm.Chat(ctx,
		llm.SystemUser(fmt.Sprintf(systemPrompt, req.SchemaContext), userPrompt(req)),
	)
	if err != nil {
		return "", fmt.Errorf("SQL generation failed: %w", err)
	}

	sql := llm.ExtractCodeBlock(reply, "sql")
	if sql == "" {
		return "", fmt.Errorf("SQL generation failed: %w", ErrEmptySQL)
	}

	g.logger.Info("SQLGEN", "Generated SQL", map[string]interface{}{
		"sql": sql,
	})
	return sql, nil
}

func userPrompt(req Request) string {
	var sb strings.Builder

	if turns := recent(req.History); len(turns) > 0 {
		sb.WriteString("Histórico da conversa:\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "- Pergunta: %s\n  SQL: %s\n", t.Question, t.SQLQuery)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Pergunta original: %s\n\n", req.Question)

	intentJSON := "{}"
	if req.Intent != nil {
		if b, err := json.Marshal(req.Intent); err == nil {
			intentJSON = string(b)
		}
	}
	fmt.Fprintf(&sb, "Intenção parseada: %s\n\nGere a query SQL:", intentJSON)
	return sb.String()
}

// recent keeps the last MaxHistoryTurns turns that produced SQL.
func recent(history []agentctx.Turn) []agentctx.Turn {
	var out []agentctx.Turn
	for _, t := range history {
		if t.SQLQuery != "" {
			out = append(out, t)
		}
	}
	if len(out) > MaxHistoryTurns {
		out = out[len(out)-MaxHistoryTurns:]
	}
	return out
}
