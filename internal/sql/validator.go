package sql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sqlgateway/canonic/internal/catalog"
)

// RejectionKind is the closed enumeration of reasons a statement can fail
// validation. Values are stable strings safe to surface to callers.
type RejectionKind string

const (
	TooLong             RejectionKind = "too_long"
	ContainsComment     RejectionKind = "contains_comment"
	MultipleStatements  RejectionKind = "multiple_statements"
	NotSelect           RejectionKind = "not_select"
	ForbiddenKeyword    RejectionKind = "forbidden_keyword"
	InjectionPattern    RejectionKind = "injection_pattern"
	UnauthorizedTable   RejectionKind = "unauthorized_table"
	SchemaUnknownTable  RejectionKind = "schema_unknown_table"
)

// Verdict is the tagged-union result of Validate: either Accepted with a
// normalized statement, or Rejected with a stable reason. The zero value is
// neither and is never returned; always construct via Accept or Reject.
type Verdict struct {
	accepted bool

	// NormalizedSQL is set only when Accepted() is true.
	NormalizedSQL string

	// Reason and Detail are set only when Accepted() is false.
	Reason RejectionKind
	Detail string
}

// Accept constructs an accepted Verdict.
func Accept(normalizedSQL string) Verdict {
	return Verdict{accepted: true, NormalizedSQL: normalizedSQL}
}

// Reject constructs a rejected Verdict.
func Reject(reason RejectionKind, detail string) Verdict {
	return Verdict{accepted: false, Reason: reason, Detail: detail}
}

// Accepted reports whether the verdict is the Accepted variant.
func (v Verdict) Accepted() bool {
	return v.accepted
}

const maxQueryLength = 5000

var (
	forbiddenKeywordRe = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|REPLACE|MERGE|GRANT|REVOKE|EXEC|EXECUTE|CALL|PRAGMA|PROCEDURE|FUNCTION)\b`)

	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bOR\s+\d+\s*=\s*\d+`),
		regexp.MustCompile(`(?i)\bOR\s+'[^']*'\s*=\s*'[^']*'`),
		regexp.MustCompile(`(?i)\bUNION\b\s+(SELECT|ALL)\b`),
		regexp.MustCompile(`(?i)\b0x[0-9a-f]+\b`),
		regexp.MustCompile(`(?i)\b(xp|sp)_[a-z0-9_]+`),
		regexp.MustCompile(`(?i)\binformation_schema\b`),
		regexp.MustCompile(`(?i)\bsqlite_master\b`),
		regexp.MustCompile(`(?i);\s*(DROP|DELETE|UPDATE)\b`),
		regexp.MustCompile(`(?i)\bWAITFOR\s+DELAY\b`),
		regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`),
		regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
	}

	limitRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\b`)
	fromJoinRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+(?:AS\s+)?[a-zA-Z_][a-zA-Z0-9_]*)?`)
)

// Limits bounds the validator's length, LIMIT-clause, and row-count policy.
// Validate replaces any zero (or negative) field with the matching
// DefaultLimits value.
type Limits struct {
	MaxQueryLength int
	DefaultLimit   int
	MaxLimit       int
}

// DefaultLimits returns the spec-mandated defaults.
func DefaultLimits() Limits {
	return Limits{MaxQueryLength: maxQueryLength, DefaultLimit: 100, MaxLimit: 1000}
}

// Validate runs the nine-step validation pipeline against raw and the given
// schema catalog. It is pure: the same input and catalog always produce the
// same verdict, and it never panics on malformed input.
func Validate(raw string, cat *catalog.Catalog, limits Limits) Verdict {
	d := DefaultLimits()
	if limits.MaxQueryLength <= 0 {
		limits.MaxQueryLength = d.MaxQueryLength
	}
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = d.DefaultLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = d.MaxLimit
	}

	// Step 1: length bound, measured on the raw (un-normalized) input.
	if len(raw) > limits.MaxQueryLength {
		return Reject(TooLong, "query length "+strconv.Itoa(len(raw))+" exceeds maximum of "+strconv.Itoa(limits.MaxQueryLength))
	}

	// Step 2: whitespace normalization. All subsequent steps operate on this.
	normalized := normalizeWhitespace(raw)

	// Step 3: comment check, before statement splitting so a comment cannot
	// hide a semicolon from the multi-statement check.
	if strings.Contains(normalized, "--") || strings.Contains(normalized, "/*") {
		return Reject(ContainsComment, "comments are not allowed in query text")
	}

	// Step 4: multi-statement check. Strip one optional trailing semicolon,
	// then any remaining semicolon means more than one statement.
	body := strings.TrimSuffix(normalized, ";")
	body = strings.TrimSpace(body)
	if strings.Contains(body, ";") {
		return Reject(MultipleStatements, "only one statement is allowed per request")
	}

	// Step 5: statement-type check.
	if firstKeyword(body) != "select" {
		return Reject(NotSelect, "only SELECT statements are allowed")
	}

	// Step 6: forbidden-keyword scan, word-bounded and case-insensitive.
	if m := forbiddenKeywordRe.FindString(body); m != "" {
		return Reject(ForbiddenKeyword, "statement contains forbidden keyword: "+strings.ToUpper(m))
	}

	// Step 7: injection-pattern scan.
	for _, re := range injectionPatterns {
		if re.MatchString(body) {
			return Reject(InjectionPattern, "statement matches a known injection pattern")
		}
	}

	// Step 8: table authorization. Lexical scan for identifiers following
	// FROM/JOIN, then an AST cross-check to catch references hidden in
	// CTEs or subqueries that the lexical scan's single-pass regex misses.
	lexicalTables := extractLexicalTables(body)
	if len(lexicalTables) == 0 {
		return Reject(UnauthorizedTable, "no tables referenced; a SELECT must read from somewhere")
	}
	for _, t := range lexicalTables {
		if !cat.TableExists(t) {
			return Reject(UnauthorizedTable, "table not in allowed schema: "+t)
		}
	}
	if astTables, ok := extractTablesAST(body); ok {
		for _, t := range astTables {
			if !cat.TableExists(t) {
				return Reject(SchemaUnknownTable, "query references a table not recognized by the schema catalog: "+t)
			}
		}
	}

	// Step 9: LIMIT enforcement (normalization, not rejection).
	final := enforceLimit(body, limits.DefaultLimit, limits.MaxLimit)

	return Accept(strings.ToLower(final))
}

// normalizeWhitespace collapses runs of whitespace to single spaces and trims
// leading/trailing whitespace.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// extractLexicalTables scans for identifiers following FROM or JOIN,
// stripping any trailing alias, case-insensitive, whitespace-delimited.
func extractLexicalTables(sql string) []string {
	matches := fromJoinRe.FindAllStringSubmatch(sql, -1)
	seen := make(map[string]bool)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// enforceLimit appends LIMIT <defaultLimit> if absent, or rewrites an
// existing LIMIT n with n > maxLimit down to maxLimit. A LIMIT within bounds
// is left unchanged.
func enforceLimit(sql string, defaultLimit, maxLimit int) string {
	loc := limitRe.FindStringSubmatchIndex(sql)
	if loc == nil {
		return sql + " LIMIT " + strconv.Itoa(defaultLimit)
	}

	n, err := strconv.Atoi(sql[loc[2]:loc[3]])
	if err != nil || n <= maxLimit {
		return sql
	}

	return sql[:loc[2]] + strconv.Itoa(maxLimit) + sql[loc[3]:]
}
