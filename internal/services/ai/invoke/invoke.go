// Package invoke defines the provider invocation contract for agents.
package invoke

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/inkhorn/inkhorn/internal/services/ai/agent"
)

// Input carries one agent invocation.
type Input struct {
	Agent  agent.Definition
	Prompt string
}

// Result carries the raw structured output of one invocation.
type Result struct {
	// Output is the JSON document matching the agent's output schema.
	Output json.RawMessage
}

// Adapter invokes a model provider on behalf of an agent.
type Adapter interface {
	Invoke(ctx context.Context, input Input) (Result, error)
}

// ProviderError wraps a provider call failure and records whether retrying
// can help. Network failures, rate limits, and 5xx responses are retryable;
// other HTTP rejections are permanent.
type ProviderError struct {
	Cause     error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Retryable {
		return "retryable provider error: " + e.Cause.Error()
	}
	return "permanent provider error: " + e.Cause.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether err should be retried by the task loop. Errors
// that did not come from a provider call default to retryable.
func Retryable(err error) bool {
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.Retryable
	}
	return true
}

// Decode unmarshals a result into the step's typed output.
func Decode[T any](result Result) (T, error) {
	var out T
	if err := json.Unmarshal(result.Output, &out); err != nil {
		return out, err
	}
	return out, nil
}
