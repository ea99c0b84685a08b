package agent

import "testing"

func TestExtractSQLFencedSQLBlock(t *testing.T) {
	text := "Sure, here's the query:\n```sql\nSELECT * FROM customers LIMIT 10\n```\nLet me know if you need anything else."
	got := extractSQL(text)
	want := "SELECT * FROM customers LIMIT 10"
	if got != want {
		t.Errorf("extractSQL() = %q, want %q", got, want)
	}
}

func TestExtractSQLFencedBlockWithoutLanguageTag(t *testing.T) {
	text := "```\nSELECT id FROM accounts\n```"
	got := extractSQL(text)
	want := "SELECT id FROM accounts"
	if got != want {
		t.Errorf("extractSQL() = %q, want %q", got, want)
	}
}

func TestExtractSQLBareSpanWithLimitBoundary(t *testing.T) {
	text := "You should run this query to get the answer: SELECT customer_id, SUM(balance) FROM accounts GROUP BY customer_id LIMIT 50 Hope that helps!"
	got := extractSQL(text)
	want := "SELECT customer_id, SUM(balance) FROM accounts GROUP BY customer_id LIMIT 50"
	if got != want {
		t.Errorf("extractSQL() = %q, want %q", got, want)
	}
}

func TestExtractSQLSingleLineFallback(t *testing.T) {
	text := "Try:\nSELECT customer_id, SUM(balance)\nFROM accounts\nGROUP BY customer_id"
	got := extractSQL(text)
	want := "SELECT customer_id, SUM(balance)\nFROM accounts"
	if got != want {
		t.Errorf("extractSQL() = %q, want %q", got, want)
	}
}

func TestExtractSQLReturnsEmptyWhenNoCandidate(t *testing.T) {
	got := extractSQL("I cannot answer this question.")
	if got != "" {
		t.Errorf("extractSQL() = %q, want empty", got)
	}
}

func TestExtractSQLStripsFencedNonSQLBlockBeforeContent(t *testing.T) {
	text := "```\nexplanation\nSELECT 1 FROM customers\n```"
	got := extractSQL(text)
	want := "SELECT 1 FROM customers"
	if got != want {
		t.Errorf("extractSQL() = %q, want %q", got, want)
	}
}
