package advisor

import (
	"context"
	"fmt"
)

// Invoker sends one prompt to one model and returns the generated text.
// Failures should be reported as *InvocationError so the fallback strategy can tell
// an unavailable model from a broken request.
type Invoker interface {
	Invoke(ctx context.Context, model string, prompt string, systemInstruction string) (string, error)
}

// InvokerFactory builds an Invoker authenticated with apiKey.
type InvokerFactory interface {
	ForKey(ctx context.Context, apiKey string) (Invoker, error)
}

type ErrorClass int

const (
	// ClassOther covers every failure that is not a model availability problem.
	ClassOther ErrorClass = iota
	// ClassNotFound means the model does not exist or is not served for this key.
	ClassNotFound
	// ClassRateLimited means the model exists but the quota is used up for now.
	ClassRateLimited
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNotFound:
		return "not-found"
	case ClassRateLimited:
		return "rate-limited"
	default:
		return "other"
	}
}

type InvocationError struct {
	Model string
	Class ErrorClass
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
