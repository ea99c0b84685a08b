package agent

import (
	"strings"

	"github.com/sqlgateway/canonic/internal/agent/prompt"
)

// PromptSet gives each pipeline stage a typed accessor over the shared
// mtime-cached Loader.
type PromptSet struct {
	loader *prompt.Loader
}

// NewPromptSet wraps loader for use by the pipeline stages.
func NewPromptSet(loader *prompt.Loader) *PromptSet {
	return &PromptSet{loader: loader}
}

// Intent returns the Intent Agent's system prompt.
func (p *PromptSet) Intent() (string, error) {
	return p.loader.Load(prompt.IntentPromptFile)
}

// SQL returns the SQL Agent's system prompt with the schema text substituted
// in place of the {{schema}} placeholder.
func (p *PromptSet) SQL(schemaText string) (string, error) {
	tmpl, err := p.loader.Load(prompt.SQLPromptFile)
	if err != nil {
		return "", err
	}
	return strings.Replace(tmpl, "{{schema}}", schemaText, 1), nil
}

// Insight returns the Insight Agent's system prompt.
func (p *PromptSet) Insight() (string, error) {
	return p.loader.Load(prompt.InsightPromptFile)
}
