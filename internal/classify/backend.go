package classify

import "context"

// Backend is the minimal completion surface the LLM classifier needs
// from a provider SDK. Implementations must honor context cancellation;
// the fallback wrapper enforces the deadline.
type Backend interface {
	Name() string
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}
