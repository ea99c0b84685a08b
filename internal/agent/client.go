// Package agent implements the Intent, SQL, and Insight transformers that
// turn a natural-language question into validated SQL and a human-readable
// summary of its result.
package agent

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client wraps the Anthropic completion API with the fixed call shape every
// pipeline stage needs: a system prompt, one user message, temperature 0,
// and a plain-text response.
type Client struct {
	inner anthropic.Client
	model string
}

// NewClient constructs a Client authenticated with apiKey, targeting model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		inner: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

// Complete sends system and user as a single-turn request at temperature 0
// and returns the concatenated text content of the response.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}
