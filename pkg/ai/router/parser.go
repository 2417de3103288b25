package router

import (
	"strings"
	"unicode"

	"sql-agent-be/pkg/agentctx"
)

var strategies = map[agentctx.Category]agentctx.Strategy{
	agentctx.CategoryStructural:  agentctx.StrategySchemaOnly,
	agentctx.CategoryAggregation: agentctx.StrategySQLDirect,
	agentctx.CategorySearch:      agentctx.StrategyFilteredRAG,
	agentctx.CategoryAnalytics:   agentctx.StrategyFullPipeline,
}

// ParseCategory reads a category out of a model reply. Models often wrap the
// word in punctuation or a short sentence, so the first recognised token wins.
func ParseCategory(reply string) agentctx.Category {
	tokens := strings.FieldsFunc(strings.ToUpper(reply), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	for _, tok := range tokens {
		c := agentctx.Category(tok)
		if _, ok := strategies[c]; ok {
			return c
		}
	}
	return agentctx.CategoryUnknown
}

// StrategyFor maps a category to its retrieval strategy, defaulting to the
// full pipeline.
func StrategyFor(c agentctx.Category) agentctx.Strategy {
	if s, ok := strategies[c]; ok {
		return s
	}
	return agentctx.StrategyFullPipeline
}
