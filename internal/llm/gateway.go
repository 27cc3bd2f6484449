package llm

import (
	"context"
	"log"
	"time"
)

// Gateway wraps a provider Client with the error policy every tool pipeline
// relies on: a transport or service failure is rendered as ordinary output
// text ("LLM error: <cause>") instead of propagating. Downstream stages can
// then still populate their debug trace and produce a response; a failed
// standardization simply parses as empty. Database failures, by contrast,
// do abort the pipeline — the asymmetry is deliberate.
type Gateway struct {
	client      Client
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// GatewayConfig tunes the Gateway. Zero values fall back to the package
// defaults; Timeout 0 means no deadline beyond the transport's own.
type GatewayConfig struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

func NewGateway(client Client, cfg GatewayConfig) *Gateway {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Gateway{
		client:      client,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Complete submits one generation call and always returns text. On failure
// the returned string is the stringified error, never empty.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userMessage string) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temp := g.temperature
	out, err := g.client.Generate(ctx, systemPrompt, userMessage, &GenerateOptions{
		MaxTokens:   g.maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		log.Printf("[llm.Gateway] generation failed: %v", err)
		return "LLM error: " + err.Error()
	}
	return out
}
