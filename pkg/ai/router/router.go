package router

import (
	"context"
	"fmt"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/llm"
)

const systemPrompt = `Você é um classificador de queries SQL.

Classifique a pergunta em UMA categoria:

1. STRUCTURAL: Perguntas sobre estrutura do banco
2. AGGREGATION: Queries com agregações simples
3. SEARCH: Buscas com filtros complexos
4. ANALYTICS: Análises complexas, múltiplos JOINs

Retorne APENAS a categoria (uma palavra em maiúsculo).`

// Decision is the routing outcome for one question.
type Decision struct {
	Category agentctx.Category
	Strategy agentctx.Strategy
	// Fallback is set when the model reply was unusable.
	Fallback bool
}

// Router classifies questions to pick a retrieval strategy.
type Router struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewRouter(provider llm.LLMProvider, log logger.ILogger) *Router {
	return &Router{
		llm:    provider,
		logger: log,
	}
}

// Route never fails: a provider error or an unknown category falls back to
// the full pipeline. The returned error reports why the fallback happened.
func (r *Router) Route(ctx context.Context, question string) (Decision, error) {
	reply, err := r.llm.Chat(ctx,
		llm.SystemUser(systemPrompt, fmt.Sprintf("Pergunta: %s\n\nCategoria:", question)),
		llm.WithTemperature(0),
	)
	if err != nil {
		r.logger.Warn("ROUTER", "Classification failed, using full pipeline", map[string]interface{}{
			"error": err.Error(),
		})
		return Decision{
			Category: agentctx.CategoryUnknown,
			Strategy: agentctx.StrategyFullPipeline,
			Fallback: true,
		}, fmt.Errorf("classify question: %w", err)
	}

	category := ParseCategory(reply)
	d := Decision{
		Category: category,
		Strategy: StrategyFor(category),
		Fallback: category == agentctx.CategoryUnknown,
	}

	r.logger.Info("ROUTER", "Query routed", map[string]interface{}{
		"category": d.Category,
		"strategy": d.Strategy,
	})
	return d, nil
}
