package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChartKind is the closed set of chart suggestions the Insight Agent may
// return.
type ChartKind string

const (
	ChartBar      ChartKind = "bar"
	ChartLine     ChartKind = "line"
	ChartPie      ChartKind = "pie"
	ChartDoughnut ChartKind = "doughnut"
	ChartTable    ChartKind = "table"
	ChartMetric   ChartKind = "metric"
)

var validChartKinds = map[ChartKind]bool{
	ChartBar: true, ChartLine: true, ChartPie: true,
	ChartDoughnut: true, ChartTable: true, ChartMetric: true,
}

// InsightResult is the Insight Agent's output: a human-readable summary and
// a chart suggestion. Summary is nil when the model's response could not be
// parsed; per spec this is a failure-tolerant stage, not a hard failure.
type InsightResult struct {
	Summary         *string   `json:"summary"`
	ChartSuggestion ChartKind `json:"chart_suggestion"`
}

// InsightAgent summarizes a validated query and its result for display.
type InsightAgent struct {
	client  *Client
	prompts *PromptSet
}

// NewInsightAgent constructs an InsightAgent.
func NewInsightAgent(client *Client, prompts *PromptSet) *InsightAgent {
	return &InsightAgent{client: client, prompts: prompts}
}

// Summarize asks the model to describe validatedSQL's executionResult. Any
// failure to reach the model or to parse its response degrades to
// {summary: nil, chart_suggestion: "table"} rather than propagating an error,
// per the Insight Agent's failure-tolerant contract.
func (a *InsightAgent) Summarize(ctx context.Context, validatedSQL string, executionResult interface{}) InsightResult {
	fallback := InsightResult{Summary: nil, ChartSuggestion: ChartTable}

	system, err := a.prompts.Insight()
	if err != nil {
		return fallback
	}

	resultJSON, err := json.Marshal(executionResult)
	if err != nil {
		return fallback
	}

	user := fmt.Sprintf("SQL:\n%s\n\nResult:\n%s", validatedSQL, string(resultJSON))

	out, err := a.client.Complete(ctx, system, user, 256)
	if err != nil {
		return fallback
	}

	return parseInsight(out)
}

// parseInsight reads the model's free-form response. A "SUMMARY:" line
// starts the summary, which runs greedily over every following line up to
// a "CHART:" line or the end of the response. A response with no "SUMMARY:"
// line at all has no recognizable structure, so the whole trimmed response
// becomes the summary instead.
func parseInsight(text string) InsightResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return InsightResult{Summary: nil, ChartSuggestion: ChartTable}
	}
	lines := strings.Split(text, "\n")

	summaryStart := -1
	chartLine := -1
	chart := ChartTable

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case summaryStart == -1 && strings.HasPrefix(upper, "SUMMARY:"):
			summaryStart = i
		case strings.HasPrefix(upper, "CHART:"):
			c := ChartKind(strings.ToLower(strings.TrimSpace(trimmed[len("CHART:"):])))
			if validChartKinds[c] {
				chart = c
			}
			if chartLine == -1 {
				chartLine = i
			}
		}
	}

	if summaryStart == -1 {
		return InsightResult{Summary: &text, ChartSuggestion: chart}
	}

	end := len(lines)
	if chartLine != -1 && chartLine > summaryStart {
		end = chartLine
	}

	var parts []string
	if first := strings.TrimSpace(strings.TrimSpace(lines[summaryStart])[len("SUMMARY:"):]); first != "" {
		parts = append(parts, first)
	}
	for i := summaryStart + 1; i < end; i++ {
		if l := strings.TrimSpace(lines[i]); l != "" {
			parts = append(parts, l)
		}
	}

	if len(parts) == 0 {
		return InsightResult{Summary: nil, ChartSuggestion: chart}
	}
	s := strings.Join(parts, " ")
	return InsightResult{Summary: &s, ChartSuggestion: chart}
}
