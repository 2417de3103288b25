package sqlguard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sql-agent-be/pkg/agentctx"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

const (
	mediumRowsThreshold   int64 = 10_000
	highRowsThreshold     int64 = 100_000
	veryHighRowsThreshold int64 = 1_000_000

	// Tables at or above this size are checked for index usage.
	largeTableRows int64 = 100_000

	joinLimitThreshold   int64 = 100_000
	singleLimitThreshold int64 = 1_000_000

	defaultJoinLimit   = 100
	defaultSingleLimit = 1_000
)

var (
	limitRe     = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	limitAnyRe  = regexp.MustCompile(`(?i)\bLIMIT\b`)
	fetchFirst  = regexp.MustCompile(`(?i)\bFETCH\s+(FIRST|NEXT)\s+(\d+)`)
	joinRe      = regexp.MustCompile(`(?i)\bJOIN\b`)
	whereRe     = regexp.MustCompile(`(?is)\bWHERE\b(.*?)(\bGROUP\s+BY\b|\bORDER\s+BY\b|\bHAVING\b|\bLIMIT\b|\bUNION\b|$)`)
	selectStar  = regexp.MustCompile(`(?i)\bSELECT\s+(DISTINCT\s+)?\*`)
	orChain     = regexp.MustCompile(`(?is)\bWHERE\b.*\bOR\b.*\bOR\b`)
	countRe     = regexp.MustCompile(`(?i)\bCOUNT\s*\(`)
	trailingEnd = " \t\r\n;"
)

// shape is what the estimators know about a query.
type shape struct {
	tables   []string
	largest  int64
	joins    int
	hasLimit bool
	limit    int64
	literal  bool
}

func (s shape) isJoin() bool {
	return s.joins > 0 || len(s.tables) > 1
}

func (v *Validator) analyze(sql string, tree *pg_query.ParseResult) shape {
	s := shape{joins: len(joinRe.FindAllStringIndex(sql, -1))}

	for _, table := range v.catalog.Tables() {
		if v.tableRe[table].MatchString(sql) {
			s.tables = append(s.tables, table)
			if rows := v.catalog[table].Rows; rows > s.largest {
				s.largest = rows
			}
		}
	}

	if sel := topLevelSelect(tree); sel != nil {
		limitFromTree(&s, sel)
	} else {
		limitFromText(&s, sql)
	}
	return s
}

// topLevelSelect returns the outermost SELECT, which for a set operation
// carries the limit of the whole query.
func topLevelSelect(tree *pg_query.ParseResult) *pg_query.SelectStmt {
	if tree == nil || len(tree.GetStmts()) == 0 {
		return nil
	}
	return tree.GetStmts()[0].GetStmt().GetSelectStmt()
}

// limitFromTree reads LIMIT and FETCH FIRST of the outer query only; limits
// inside subqueries and CTEs do not bound the result.
func limitFromTree(s *shape, sel *pg_query.SelectStmt) {
	count := sel.GetLimitCount()
	if count == nil {
		return
	}
	s.hasLimit = true
	if c := count.GetAConst(); c != nil && !c.GetIsnull() && c.GetIval() != nil {
		s.literal = true
		s.limit = int64(c.GetIval().GetIval())
	}
}

// limitFromText is the fallback for text the parser rejected.
func limitFromText(s *shape, sql string) {
	if m := limitRe.FindStringSubmatch(sql); m != nil {
		s.hasLimit, s.literal = true, true
		s.limit, _ = strconv.ParseInt(m[1], 10, 64)
	} else if m := fetchFirst.FindStringSubmatch(sql); m != nil {
		s.hasLimit, s.literal = true, true
		s.limit, _ = strconv.ParseInt(m[2], 10, 64)
	} else if limitAnyRe.MatchString(sql) {
		s.hasLimit = true
	}
}

// estimateCost models worst-case fan-out, not a planner. An explicit literal
// limit is always low.
func estimateCost(s shape) (agentctx.Cost, int64) {
	if s.hasLimit && s.literal {
		return agentctx.CostLow, s.limit
	}

	cost := tierFor(s.largest)
	if s.joins >= 2 {
		cost = cost.Promote()
	}
	return cost, s.largest
}

func tierFor(rows int64) agentctx.Cost {
	switch {
	case rows < mediumRowsThreshold:
		return agentctx.CostLow
	case rows < highRowsThreshold:
		return agentctx.CostMedium
	case rows < veryHighRowsThreshold:
		return agentctx.CostHigh
	default:
		return agentctx.CostVeryHigh
	}
}

func (v *Validator) checkIndexes(sql string, s shape) []string {
	m := whereRe.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}
	clause := m[1]

	var warnings []string
	for _, table := range s.tables {
		info := v.catalog[table]
		if info.Rows < largeTableRows || len(info.IndexedColumns) == 0 {
			continue
		}
		if mentionsAny(clause, v.indexRe[table]) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"Performance: filter on %s does not use an indexed column (%s)",
			table, strings.Join(info.IndexedColumns, ", ")))
	}
	return warnings
}

func mentionsAny(text string, columns []*regexp.Regexp) bool {
	for _, re := range columns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// autoLimit appends a default LIMIT to unbounded queries over large tables.
func autoLimit(sql string, s shape) (string, string, bool) {
	if s.hasLimit {
		return sql, "", false
	}

	var limit int
	switch {
	case s.isJoin() && s.largest >= joinLimitThreshold:
		limit = defaultJoinLimit
	case !s.isJoin() && s.largest >= singleLimitThreshold:
		limit = defaultSingleLimit
	default:
		return sql, "", false
	}

	rewritten := fmt.Sprintf("%s LIMIT %d", strings.TrimRight(sql, trailingEnd), limit)
	note := fmt.Sprintf("Added LIMIT %d automatically (largest table has %d rows)", limit, s.largest)
	return rewritten, note, true
}

func suggestStyle(sql string, s shape, rewritten bool) []string {
	var notes []string
	if selectStar.MatchString(sql) {
		notes = append(notes, "Consider specifying column names instead of SELECT *")
	}
	if !s.hasLimit && !rewritten && !countRe.MatchString(sql) {
		notes = append(notes, "Consider adding LIMIT clause to prevent large result sets")
	}
	if orChain.MatchString(sql) {
		notes = append(notes, "Multiple OR conditions might benefit from IN clause")
	}
	return notes
}
