package internal

import "context"

// Provider completes a prompt with a language model.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
