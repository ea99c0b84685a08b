package agent

import (
	"context"
	"regexp"
	"strings"

	canonicerrors "github.com/sqlgateway/canonic/internal/errors"
)

// SQLAgent turns an interpreted intent (plus, on retry, the previous
// rejection reason) into a single candidate SQL statement.
type SQLAgent struct {
	client     *Client
	prompts    *PromptSet
	schemaText string
}

// NewSQLAgent constructs a SQLAgent. schemaText is the Schema Catalog's
// prompt text, embedded in the system prompt so the model only ever sees
// the tables it is allowed to query.
func NewSQLAgent(client *Client, prompts *PromptSet, schemaText string) *SQLAgent {
	return &SQLAgent{client: client, prompts: prompts, schemaText: schemaText}
}

// Synthesize generates a candidate SQL statement for interpretedIntent. On
// retry, errorMessage carries the previous rejection detail so the model can
// correct the specific problem rather than guessing.
func (a *SQLAgent) Synthesize(ctx context.Context, interpretedIntent, errorMessage string) (string, error) {
	system, err := a.prompts.SQL(a.schemaText)
	if err != nil {
		return "", canonicerrors.NewInternal("failed to load sql prompt", err)
	}

	user := "Intent: " + interpretedIntent
	if errorMessage != "" {
		user += "\n\nThe previous attempt was rejected: " + errorMessage
	}

	out, err := a.client.Complete(ctx, system, user, 1024)
	if err != nil {
		return "", canonicerrors.NewLLMUnavailable(err)
	}

	candidate := extractSQL(out)
	if candidate == "" {
		return "", canonicerrors.NewLLMInvalidResponse("sql_synthesis", nil)
	}
	return strings.TrimSuffix(strings.TrimSpace(candidate), ";"), nil
}

// extractSQL pulls a SQL statement out of model output using four
// strategies in order: a fenced ```sql block, any fenced block whose
// content starts with SELECT/WITH, a multi-line SELECT/WITH span, and
// finally, as a last resort, the shortest SELECT ... FROM <table> prefix
// (which may cross line breaks).
var (
	reCTE        = regexp.MustCompile(`(?is)(WITH\s+\w+\s+AS\s*\(.+?(?:LIMIT\s+\d+|;\s*$|\z))`)
	reSelectSpan = regexp.MustCompile(`(?is)(SELECT\s+.+?FROM\s+.+?(?:LIMIT\s+\d+|;\s*$|\z))`)
	reSingleLine = regexp.MustCompile(`(?is)(SELECT\s+\S.+?\bFROM\b\s+\S+)`)
)

func extractSQL(text string) string {
	lower := strings.ToLower(text)
	for _, tag := range []string{"```sql", "```SQL"} {
		idx := strings.Index(lower, strings.ToLower(tag))
		if idx == -1 {
			continue
		}
		body := text[idx+len(tag):]
		if len(body) > 0 && body[0] == '\n' {
			body = body[1:]
		}
		if end := strings.Index(body, "```"); end != -1 {
			if candidate := strings.TrimSpace(body[:end]); candidate != "" {
				return candidate
			}
		}
	}

	parts := strings.Split(text, "```")
	for i := 1; i < len(parts); i += 2 {
		candidate := strings.TrimSpace(parts[i])
		if nl := strings.Index(candidate, "\n"); nl != -1 {
			firstLine := strings.TrimSpace(candidate[:nl])
			up := strings.ToUpper(firstLine)
			if !strings.Contains(up, "SELECT") && !strings.Contains(up, "WITH") {
				candidate = strings.TrimSpace(candidate[nl:])
			}
		}
		up := strings.ToUpper(candidate)
		if strings.HasPrefix(up, "SELECT") || strings.HasPrefix(up, "WITH") {
			return strings.TrimSuffix(strings.TrimSpace(candidate), ";")
		}
	}

	if m := reCTE.FindString(text); m != "" {
		return strings.TrimSuffix(strings.TrimSpace(m), ";")
	}

	if m := reSelectSpan.FindString(text); m != "" {
		candidate := strings.TrimSuffix(strings.TrimSpace(m), ";")
		if strings.Contains(strings.ToUpper(candidate), " FROM ") {
			return candidate
		}
	}

	if m := reSingleLine.FindString(text); m != "" {
		return strings.TrimSuffix(strings.TrimSpace(m), ";")
	}

	return ""
}
