// Package intent extracts a structured reading of the question.
package intent

import (
	"context"
	"fmt"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm"
)

const systemPrompt = `Você é um especialista em análise de linguagem natural para queries SQL.
Sua tarefa é extrair a intenção do usuário e identificar entidades relevantes.

Retorne um JSON com:
- intent: tipo de operação (SELECT, AGGREGATE, JOIN)
- entities: entidades mencionadas (tabelas, colunas, valores)
- filters: filtros a serem aplicados
- aggregations: agregações necessárias (SUM, COUNT, AVG, etc)
- joins: tabelas que precisam ser relacionadas

Exemplo de pergunta: "Quais clientes compraram um Notebook?"
Resposta esperada:
{
    "intent": "JOIN",
    "entities": {"tables": ["clientes", "transacoes", "produtos"], "product_name": "Notebook"},
    "filters": {"produtos.nome": "Notebook"},
    "aggregations": [],
    "joins": ["clientes-transacoes", "transacoes-produtos"]
}`

const noSchema = "Schema não disponível"

type Parser struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewParser(provider llm.LLMProvider, log logger.ILogger) *Parser {
	return &Parser{llm: provider, logger: log}
}

func (p *Parser) Parse(ctx context.Context, question, schemaContext string) (*agentctx.ParsedIntent, error) {
	if schemaContext == "" {
		schemaContext = noSchema
	}

	reply, err := p.llm.Chat(ctx, llm.SystemUser(systemPrompt,
		fmt.Sprintf("%s\n\nContexto do schema:\n%s", question, schemaContext)))
	if err != nil {
		return nil, fmt.Errorf("NLP parsing failed: %w", err)
	}

	var parsed agentctx.ParsedIntent
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		return nil, fmt.Errorf("NLP parsing failed: %w", err)
	}
	if parsed.Entities == nil {
		parsed.Entities = map[string]any{}
	}
	if parsed.Filters == nil {
		parsed.Filters = map[string]any{}
	}

	p.logger.Info("INTENT", "Parsed intent", map[string]interface{}{
		"intent": parsed.Intent,
	})
	return &parsed, nil
}
