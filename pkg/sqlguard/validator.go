// Package sqlguard decides whether generated SQL may run and rewrites
// unbounded queries over large tables.
package sqlguard

import (
	"regexp"
	"strings"

	"sql-agent-be/pkg/agentctx"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Validator is safe for concurrent use; it holds only immutable state.
type Validator struct {
	catalog Catalog
	tableRe map[string]*regexp.Regexp
	indexRe map[string][]*regexp.Regexp
}

func NewValidator(catalog Catalog) *Validator {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	v := &Validator{
		catalog: catalog,
		tableRe: make(map[string]*regexp.Regexp, len(catalog)),
		indexRe: make(map[string][]*regexp.Regexp, len(catalog)),
	}
	for name, info := range catalog {
		v.tableRe[name] = wordRe(name)
		for _, col := range info.IndexedColumns {
			v.indexRe[name] = append(v.indexRe[name], wordRe(col))
		}
	}
	return v
}

func wordRe(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

func (v *Validator) Catalog() Catalog {
	return v.catalog
}

// Validate never mutates its input and returns a fresh result. Only the
// danger, operation and syntax checks produce errors; the remaining checks
// add warnings, optimization notes and the optional rewrite.
func (v *Validator) Validate(sql string) *agentctx.ValidationResult {
	if strings.TrimSpace(sql) == "" {
		return agentctx.InvalidResult(sql, msgNoSQL)
	}

	res := &agentctx.ValidationResult{
		Errors:        []string{},
		Warnings:      []string{},
		Optimizations: []string{},
		OptimizedSQL:  sql,
	}

	tree, parseErr := pg_query.Parse(sql)

	res.Errors = append(res.Errors, checkDangerousPatterns(sql)...)
	res.Errors = append(res.Errors, checkOperations(sql, tree, parseErr)...)
	res.Warnings = append(res.Warnings, checkTableReferences(sql, v.catalog)...)
	res.Errors = append(res.Errors, checkSyntax(sql, tree, parseErr)...)

	s := v.analyze(sql, tree)
	res.EstimatedCost, res.EstimatedRows = estimateCost(s)
	res.Warnings = append(res.Warnings, v.checkIndexes(sql, s)...)

	res.IsValid = len(res.Errors) == 0

	rewritten := false
	if res.IsValid {
		var note string
		res.OptimizedSQL, note, rewritten = autoLimit(sql, s)
		if rewritten {
			res.Optimizations = append(res.Optimizations, note)
		}
	}
	res.Optimizations = append(res.Optimizations, suggestStyle(sql, s, rewritten)...)

	return res
}
