package agent

import "testing"

func TestParseInsightMissingSummaryUsesWholeText(t *testing.T) {
	text := "The customer has 5 accounts with a combined balance of $12,450."
	got := parseInsight(text)
	if got.Summary == nil {
		t.Fatal("Summary = nil, want whole text")
	}
	if *got.Summary != text {
		t.Errorf("Summary = %q, want %q", *got.Summary, text)
	}
	if got.ChartSuggestion != ChartTable {
		t.Errorf("ChartSuggestion = %q, want table", got.ChartSuggestion)
	}
}

func TestParseInsightGreedyMultilineSummary(t *testing.T) {
	text := "SUMMARY: The customer has 5 accounts.\n" +
		"The total balance across all accounts is $12,450.\n" +
		"CHART: bar\n" +
		"Some trailing note that should not appear in the summary."
	got := parseInsight(text)
	if got.Summary == nil {
		t.Fatal("Summary = nil")
	}
	want := "The customer has 5 accounts. The total balance across all accounts is $12,450."
	if *got.Summary != want {
		t.Errorf("Summary = %q, want %q", *got.Summary, want)
	}
	if got.ChartSuggestion != ChartBar {
		t.Errorf("ChartSuggestion = %q, want bar", got.ChartSuggestion)
	}
}

func TestParseInsightInvalidChartKindDefaultsToTable(t *testing.T) {
	got := parseInsight("SUMMARY: ok\nCHART: pizza")
	if got.ChartSuggestion != ChartTable {
		t.Errorf("ChartSuggestion = %q, want table", got.ChartSuggestion)
	}
	if got.Summary == nil || *got.Summary != "ok" {
		t.Errorf("Summary = %v, want ok", got.Summary)
	}
}

func TestParseInsightEmptyTextReturnsNilSummary(t *testing.T) {
	got := parseInsight("   \n  ")
	if got.Summary != nil {
		t.Errorf("Summary = %q, want nil", *got.Summary)
	}
	if got.ChartSuggestion != ChartTable {
		t.Errorf("ChartSuggestion = %q, want table", got.ChartSuggestion)
	}
}

func TestParseInsightSummaryWithNoContentCollapsesToNil(t *testing.T) {
	got := parseInsight("SUMMARY:\nCHART: line")
	if got.Summary != nil {
		t.Errorf("Summary = %q, want nil", *got.Summary)
	}
	if got.ChartSuggestion != ChartLine {
		t.Errorf("ChartSuggestion = %q, want line", got.ChartSuggestion)
	}
}

func TestParseInsightSummaryPrefixIsCaseInsensitive(t *testing.T) {
	got := parseInsight("Summary: lowercase works\ncalculation details")
	if got.Summary == nil {
		t.Fatal("Summary = nil")
	}
	want := "lowercase works calculation details"
	if *got.Summary != want {
		t.Errorf("Summary = %q, want %q", *got.Summary, want)
	}
}
