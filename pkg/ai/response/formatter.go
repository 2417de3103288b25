// Package response turns execution results into the user-facing answer.
package response

import (
	"context"
	"fmt"
	"strings"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm"
)

const systemPrompt = `Você é um assistente que formata resultados de queries SQL de forma clara e amigável.

Sua tarefa é:
1. Apresentar os dados de forma organizada e legível
2. Adicionar contexto relevante baseado na pergunta original
3. Destacar insights importantes
4. Usar linguagem natural e acessível
5. Se houver muitos resultados, resumir os principais pontos

Formato de saída:
- Comece com um resumo da resposta
- Apresente os dados principais
- Adicione observações relevantes se necessário`

type Formatter struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewFormatter(provider llm.LLMProvider, log logger.ILogger) *Formatter {
	return &Formatter{llm: provider, logger: log}
}

// Input is what the formatter needs from the request.
type Input struct {
	Question  string
	SQL       string
	Execution *agentctx.ExecutionResult
	Errors    []string
}

// Format always returns a usable answer. A non-nil error means the model
// call failed and the answer is the plain rendering of the data.
func (f *Formatter) Format(ctx context.Context, in Input) (string, error) {
	if in.Execution == nil || !in.Execution.Success {
		return ErrorResponse(in.Question, in.Errors), nil
	}

	reply, err := f.llm.Chat(ctx, llm.SystemUser(systemPrompt, fmt.Sprintf(
		"Pergunta original: %s\n\nSQL executado: %s\n\nResultados: %s\n\nFormate uma resposta clara e útil:",
		in.Question, in.SQL, in.Execution.DataJSON(),
	)), llm.WithTemperature(0.3))

	var text string
	if err != nil {
		f.logger.Warn("FORMATTER", "Model formatting failed, rendering data directly", map[string]interface{}{
			"error": err.Error(),
		})
		text = PlainResponse(in.Execution)
		err = fmt.Errorf("Response formatting failed: %w", err)
	} else {
		text = strings.TrimSpace(reply)
	}

	return text + TruncationNote(in.Execution), err
}

// ErrorResponse lists every accumulated error and asks for a rephrase.
func ErrorResponse(question string, errs []string) string {
	var sb strings.Builder
	sb.WriteString("Desculpe, não foi possível processar sua pergunta:\n\n")
	fmt.Fprintf(&sb, "Pergunta: %s\n\n", question)
	sb.WriteString("Erros encontrados:\n")
	for i, e := range errs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e)
	}
	sb.WriteString("\nPor favor, reformule sua pergunta ou verifique se os dados solicitados existem.")
	return sb.String()
}

func TruncationNote(r *agentctx.ExecutionResult) string {
	if r == nil || !r.Truncated {
		return ""
	}
	return fmt.Sprintf("\n\nNota: Resultados limitados a %d registros.", len(r.Data))
}

// PlainResponse renders rows one per line, columns in result order.
func PlainResponse(r *agentctx.ExecutionResult) string {
	if r == nil || len(r.Data) == 0 {
		return "A consulta não retornou registros."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Resultado da consulta (%d registros):\n", r.RowCount)
	for _, row := range r.Data {
		var cells []string
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			cells = append(cells, fmt.Sprintf("%s: %v", pair.Key, display(pair.Value)))
		}
		sb.WriteString("- " + strings.Join(cells, ", ") + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func display(v any) any {
	if v == nil {
		return "NULL"
	}
	return v
}
