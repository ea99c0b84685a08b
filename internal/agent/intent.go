package agent

import (
	"context"
	"strings"

	canonicerrors "github.com/sqlgateway/canonic/internal/errors"
)

// IntentAgent restates a natural-language question as a precise one or
// two sentence description of the data to retrieve. It never retries on
// failure: an unreachable LLM surfaces immediately as llm_unavailable.
type IntentAgent struct {
	client  *Client
	prompts *PromptSet
}

// NewIntentAgent constructs an IntentAgent.
func NewIntentAgent(client *Client, prompts *PromptSet) *IntentAgent {
	return &IntentAgent{client: client, prompts: prompts}
}

// Interpret turns userQuery into an interpreted intent string.
func (a *IntentAgent) Interpret(ctx context.Context, userQuery string) (string, error) {
	system, err := a.prompts.Intent()
	if err != nil {
		return "", canonicerrors.NewInternal("failed to load intent prompt", err)
	}

	out, err := a.client.Complete(ctx, system, userQuery, 512)
	if err != nil {
		return "", canonicerrors.NewLLMUnavailable(err)
	}

	intent := strings.TrimSpace(out)
	if intent == "" {
		return "", canonicerrors.NewLLMInvalidResponse("intent", nil)
	}
	return intent, nil
}
