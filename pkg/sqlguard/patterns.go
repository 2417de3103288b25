package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

type dangerousPattern struct {
	label string
	re    *regexp.Regexp
}

// Matching is case-insensitive over the whole text, string literals included.
var dangerousPatterns = []dangerousPattern{
	{`DROP`, regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE|SCHEMA|VIEW|INDEX|FUNCTION)\b`)},
	{`DELETE FROM`, regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`)},
	{`TRUNCATE`, regexp.MustCompile(`(?i)\bTRUNCATE\b`)},
	{`ALTER TABLE`, regexp.MustCompile(`(?i)\bALTER\s+TABLE\b`)},
	{`CREATE TABLE`, regexp.MustCompile(`(?i)\bCREATE\s+(TEMP\s+|TEMPORARY\s+)?TABLE\b`)},
	{`INSERT INTO`, regexp.MustCompile(`(?i)\bINSERT\s+INTO\b`)},
	{`UPDATE`, regexp.MustCompile(`(?i)\bUPDATE\s+`)},
	{`MERGE INTO`, regexp.MustCompile(`(?i)\bMERGE\s+INTO\b`)},
	{`EXEC`, regexp.MustCompile(`(?i)\bEXEC(UTE)?\b`)},
	{`GRANT`, regexp.MustCompile(`(?i)\bGRANT\b`)},
	{`REVOKE`, regexp.MustCompile(`(?i)\bREVOKE\b`)},
	{`; SELECT`, regexp.MustCompile(`(?is);.*\bSELECT\b`)},
	{`--`, regexp.MustCompile(`--`)},
	{`/*`, regexp.MustCompile(`/\*`)},
}

const (
	opSelect = "SELECT"
)

const (
	msgDangerous     = "Dangerous pattern detected: %s"
	msgNotAllowed    = "Operation not allowed: %s"
	msgMultiple      = "Multiple statements are not allowed"
	msgUnknownTable  = "Unknown table reference: %s"
	msgInvalidSyntax = "Invalid SQL syntax: %s"
	msgUnbalanced    = "Unbalanced parentheses"
	msgNoSQL         = "No SQL query to validate"
)

func checkDangerousPatterns(sql string) []string {
	var errs []string
	for _, p := range dangerousPatterns {
		if p.re.MatchString(sql) {
			errs = append(errs, fmt.Sprintf(msgDangerous, p.label))
		}
	}
	return errs
}

// checkOperations classifies every statement; only reads are allowed. When
// the parser rejected the text the leading keyword is classified instead.
func checkOperations(sql string, tree *pg_query.ParseResult, parseErr error) []string {
	if parseErr != nil || tree == nil {
		kw := leadingKeyword(sql)
		if kw == opSelect || kw == "WITH" {
			return nil
		}
		if kw == "" {
			kw = "UNKNOWN"
		}
		return []string{fmt.Sprintf(msgNotAllowed, kw)}
	}

	var errs []string
	if len(tree.GetStmts()) > 1 {
		errs = append(errs, msgMultiple)
	}
	seen := make(map[string]bool)
	for _, raw := range tree.GetStmts() {
		kind := classify(raw.GetStmt())
		if kind != opSelect && !seen[kind] {
			seen[kind] = true
			errs = append(errs, fmt.Sprintf(msgNotAllowed, kind))
		}
	}
	return errs
}

func classify(node *pg_query.Node) string {
	if node == nil {
		return "UNKNOWN"
	}
	switch n := node.GetNode().(type) {
	case *pg_query.Node_SelectStmt:
		sel := n.SelectStmt
		if sel.GetIntoClause() != nil {
			return "SELECT INTO"
		}
		if with := sel.GetWithClause(); with != nil {
			for _, cte := range with.GetCtes() {
				if kind := classify(cte.GetCommonTableExpr().GetCtequery()); kind != opSelect {
					return kind
				}
			}
		}
		return opSelect
	case *pg_query.Node_InsertStmt:
		return "INSERT"
	case *pg_query.Node_UpdateStmt:
		return "UPDATE"
	case *pg_query.Node_DeleteStmt:
		return "DELETE"
	case *pg_query.Node_MergeStmt:
		return "MERGE"
	case *pg_query.Node_DropStmt:
		return "DROP"
	case *pg_query.Node_TruncateStmt:
		return "TRUNCATE"
	case *pg_query.Node_CreateStmt, *pg_query.Node_CreateTableAsStmt:
		return "CREATE"
	case *pg_query.Node_AlterTableStmt:
		return "ALTER"
	case *pg_query.Node_GrantStmt:
		return "GRANT"
	case *pg_query.Node_CopyStmt:
		return "COPY"
	case *pg_query.Node_ExplainStmt:
		return "EXPLAIN"
	case *pg_query.Node_VariableSetStmt:
		return "SET"
	case *pg_query.Node_TransactionStmt:
		return "TRANSACTION"
	case *pg_query.Node_CallStmt:
		return "CALL"
	case *pg_query.Node_DoStmt:
		return "DO"
	default:
		return strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(fmt.Sprintf("%T", n), "*pg_query.Node_"), "Stmt"))
	}
}

func leadingKeyword(sql string) string {
	trimmed := strings.TrimLeft(sql, " \t\r\n(")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimRight(fields[0], "(;"))
}

// checkTableReferences looks at the token after every FROM/JOIN. Subqueries
// and function arguments such as EXTRACT(... FROM col) yield false warnings.
func checkTableReferences(sql string, catalog Catalog) []string {
	tokens := strings.Fields(strings.ToLower(sql))
	seen := make(map[string]bool)
	var warnings []string

	for i, tok := range tokens {
		if tok != "from" && tok != "join" {
			continue
		}
		if i+1 >= len(tokens) {
			break
		}
		name := strings.Trim(tokens[i+1], `();,"`)
		name = strings.TrimPrefix(name, "public.")
		if name == "" || seen[name] {
			continue
		}
		if catalog.Allowed(name) || hasAllowedPrefix(name, catalog) {
			continue
		}
		seen[name] = true
		warnings = append(warnings, fmt.Sprintf(msgUnknownTable, name))
	}
	return warnings
}

func hasAllowedPrefix(name string, catalog Catalog) bool {
	for table := range catalog {
		if strings.HasPrefix(name, table) {
			return true
		}
	}
	return false
}

func checkSyntax(sql string, tree *pg_query.ParseResult, parseErr error) []string {
	var errs []string
	if parseErr != nil {
		errs = append(errs, fmt.Sprintf(msgInvalidSyntax, parseErr.Error()))
	} else if tree == nil || len(tree.GetStmts()) == 0 {
		errs = append(errs, fmt.Sprintf(msgInvalidSyntax, "empty statement"))
	}
	if strings.Count(sql, "(") != strings.Count(sql, ")") {
		errs = append(errs, msgUnbalanced)
	}
	return errs
}
