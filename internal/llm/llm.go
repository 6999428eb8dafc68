// Package llm is the boundary to the language-understanding collaborator.
// The control plane owns prompt construction and response parsing; this
// package only moves text in and out of the model.
package llm

import "context"

// Client is the language-understanding contract. Classify is used for
// intent classification (deterministic, low temperature); Generate
// produces free-text conversational replies.
type Client interface {
	Classify(ctx context.Context, prompt string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}
