// Package llm contains the gateway's interface to remote text-generation
// services, with interchangeable provider clients (Bedrock, Gemini) behind
// a single Client interface.
package llm

import "context"

// Default generation parameters, matching the tuning the CRM pipelines were
// written against. Callers override per call via GenerateOptions.
const (
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.1
)

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	// MaxTokens caps the generated output; 0 means DefaultMaxTokens.
	MaxTokens int
	// Temperature controls randomness. Using a pointer distinguishes an
	// explicit 0.0 from an unset value (which means DefaultTemperature).
	Temperature *float64
}

func (o *GenerateOptions) maxTokens() int {
	if o == nil || o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

func (o *GenerateOptions) temperature() float64 {
	if o == nil || o.Temperature == nil {
		return DefaultTemperature
	}
	return *o.Temperature
}

// Client is the universal interface all provider clients implement.
// It submits a (system instruction, user text) pair and returns the
// generated text. Errors are transport or service failures; the caller
// decides the recovery policy (see Gateway).
type Client interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, opts *GenerateOptions) (string, error)
}
