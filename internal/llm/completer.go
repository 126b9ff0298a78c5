// Package llm adapts external text-completion providers to the relevance
// classification and answer generation the router needs.
package llm

import "context"

// CompletionRequest is one text-in/text-out exchange.
type CompletionRequest struct {
	Instruction string
	Context     string
	Input       string
	Temperature float64
	MaxTokens   int
}

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SystemPrompt joins the role instruction and the context block.
func (r CompletionRequest) SystemPrompt() string {
	if r.Context == "" {
		return r.Instruction
	}
	return r.Instruction + "\n\n" + r.Context
}
