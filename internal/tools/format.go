package tools

import (
	"context"
	"encoding/json"
)

// format is the last pipeline stage: serialize the result set and have the
// LLM render it as readable text. An empty result set short-circuits to the
// tool's canned sentence with no LLM call; the trace shows the skip by
// carrying the canned response with no format request.
func (p *Pipeline) format(ctx context.Context, data any, count int, trace *DebugTrace) string {
	if count == 0 {
		trace.FormatResponse = p.cfg.EmptyResultText
		return p.cfg.EmptyResultText
	}

	systemPrompt := p.deps.Prompts.Resolve(ctx, p.cfg.Key+"_post")

	// db.Row marshals fields in column order, so this serialization is
	// stable across runs.
	dataJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		dataJSON = []byte("[]")
	}
	userMessage := "Data:\n" + string(dataJSON)

	trace.FormatRequest = systemPrompt + "\n\n" + userMessage
	text := p.deps.LLM.Complete(ctx, systemPrompt, userMessage)
	trace.FormatResponse = text
	return text
}
