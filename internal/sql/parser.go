// Package sql implements the SQL Validator: a pure, deterministic pipeline
// that either accepts a SELECT statement with a normalized, bounded LIMIT
// clause or rejects it with a stable, typed reason. It never touches the
// network or a database.
package sql

import (
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"
)

// extractTablesAST parses sql with the vitess AST parser and returns the set
// of base table names referenced anywhere in the statement: FROM, JOIN,
// WHERE/HAVING subqueries, and SELECT-expression subqueries. CTE names are
// excluded since they are not base tables. This is used as a cross-check
// against the lexical FROM/JOIN scan in the validator so that a table
// reference hidden inside a subquery or CTE cannot slip past authorization.
//
// Returns ok=false if the statement does not parse or is not a SELECT/UNION,
// in which case the caller should fall back to the lexical result alone.
func extractTablesAST(sql string) (tables []string, ok bool) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, false
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		return extractTablesFromSelect(s), true
	case *sqlparser.SetOp:
		return extractTablesFromUnion(s), true
	default:
		return nil, false
	}
}

// extractTablesFromSelect walks a single SELECT: its FROM/JOIN tree, any CTE
// bodies, and subqueries nested in WHERE, HAVING, and the select list, then
// strips CTE names out of the result since a CTE names a derived table, not
// one of the three base tables this schema recognizes.
func extractTablesFromSelect(sel *sqlparser.Select) []string {
	tables := make([]string, 0)
	seen := make(map[string]bool)
	cteNames := make(map[string]bool)

	if sel.With != nil {
		for _, cte := range sel.With.Ctes {
			if cte.As.String() != "" {
				cteNames[cte.As.String()] = true
			}
			if subquery, ok := cte.Expr.(*sqlparser.Subquery); ok {
				extractTablesFromSelectStatement(subquery.Select, &tables, seen)
			}
		}
	}

	for _, tableExpr := range sel.From {
		extractTablesFromTableExpr(tableExpr, &tables, seen)
	}
	if sel.Where != nil {
		extractTablesFromExpr(sel.Where.Expr, &tables, seen)
	}
	if sel.Having != nil {
		extractTablesFromExpr(sel.Having.Expr, &tables, seen)
	}
	for _, expr := range sel.SelectExprs {
		if aliased, ok := expr.(*sqlparser.AliasedExpr); ok {
			extractTablesFromExpr(aliased.Expr, &tables, seen)
		}
	}

	filtered := make([]string, 0, len(tables))
	for _, t := range tables {
		if !cteNames[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// extractTablesFromUnion extracts tables from both sides of a set operation
// (UNION/INTERSECT/EXCEPT over the three base tables).
func extractTablesFromUnion(union *sqlparser.SetOp) []string {
	tables := make([]string, 0)
	seen := make(map[string]bool)
	extractTablesFromSelectStatement(union.Left, &tables, seen)
	extractTablesFromSelectStatement(union.Right, &tables, seen)
	return tables
}

// extractTablesFromSelectStatement extracts tables from a nested SELECT or
// set operation, the two SelectStatement shapes a query over this schema
// actually produces. A parenthesized whole-statement wrapper around a set
// operation's operand does not arise over three unqualified tables and is
// not handled.
func extractTablesFromSelectStatement(stmt sqlparser.SelectStatement, tables *[]string, seen map[string]bool) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		if s.With != nil {
			for _, cte := range s.With.Ctes {
				if subquery, ok := cte.Expr.(*sqlparser.Subquery); ok {
					extractTablesFromSelectStatement(subquery.Select, tables, seen)
				}
			}
		}
		for _, tableExpr := range s.From {
			extractTablesFromTableExpr(tableExpr, tables, seen)
		}
		if s.Where != nil {
			extractTablesFromExpr(s.Where.Expr, tables, seen)
		}
	case *sqlparser.SetOp:
		extractTablesFromSelectStatement(s.Left, tables, seen)
		extractTablesFromSelectStatement(s.Right, tables, seen)
	}
}

// extractTablesFromTableExpr extracts table names from a FROM-clause
// expression, recursing through JOINs. The three base tables this schema
// recognizes are always unqualified, so a table name needs no schema- or
// database-qualifier handling.
func extractTablesFromTableExpr(expr sqlparser.TableExpr, tables *[]string, seen map[string]bool) {
	switch t := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		switch e := t.Expr.(type) {
		case sqlparser.TableName:
			name := strings.ToLower(e.Name.String())
			if name != "" && !seen[name] {
				*tables = append(*tables, name)
				seen[name] = true
			}
		case *sqlparser.Subquery:
			extractTablesFromSelectStatement(e.Select, tables, seen)
		}
	case *sqlparser.JoinTableExpr:
		extractTablesFromTableExpr(t.LeftExpr, tables, seen)
		extractTablesFromTableExpr(t.RightExpr, tables, seen)
	}
}

// extractTablesFromExpr extracts tables referenced by subqueries nested in
// an expression: WHERE/HAVING conditions built from boolean and comparison
// operators, EXISTS subqueries, and CASE expressions.
func extractTablesFromExpr(expr sqlparser.Expr, tables *[]string, seen map[string]bool) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *sqlparser.Subquery:
		extractTablesFromSelectStatement(e.Select, tables, seen)
	case *sqlparser.AndExpr:
		extractTablesFromExpr(e.Left, tables, seen)
		extractTablesFromExpr(e.Right, tables, seen)
	case *sqlparser.OrExpr:
		extractTablesFromExpr(e.Left, tables, seen)
		extractTablesFromExpr(e.Right, tables, seen)
	case *sqlparser.ComparisonExpr:
		extractTablesFromExpr(e.Left, tables, seen)
		extractTablesFromExpr(e.Right, tables, seen)
	case *sqlparser.ParenExpr:
		extractTablesFromExpr(e.Expr, tables, seen)
	case *sqlparser.RangeCond:
		extractTablesFromExpr(e.Left, tables, seen)
		extractTablesFromExpr(e.From, tables, seen)
		extractTablesFromExpr(e.To, tables, seen)
	case *sqlparser.IsExpr:
		extractTablesFromExpr(e.Expr, tables, seen)
	case *sqlparser.NotExpr:
		extractTablesFromExpr(e.Expr, tables, seen)
	case *sqlparser.ExistsExpr:
		extractTablesFromSelectStatement(e.Subquery.Select, tables, seen)
	case *sqlparser.FuncExpr:
		for _, arg := range e.Exprs {
			if aliased, ok := arg.(*sqlparser.AliasedExpr); ok {
				extractTablesFromExpr(aliased.Expr, tables, seen)
			}
		}
	case *sqlparser.CaseExpr:
		extractTablesFromExpr(e.Expr, tables, seen)
		for _, when := range e.Whens {
			extractTablesFromExpr(when.Cond, tables, seen)
			extractTablesFromExpr(when.Val, tables, seen)
		}
		extractTablesFromExpr(e.Else, tables, seen)
	}
}

// firstKeyword returns the first whitespace-delimited token of s, lowercased.
func firstKeyword(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	i := strings.IndexAny(s, " \t\r\n(")
	if i == -1 {
		i = len(s)
	}
	return strings.ToLower(s[:i])
}
