package tools

import "context"

// standardize is the first pipeline stage: resolve the tool's "_pre"
// prompt, run the LLM over the raw input, and parse the response into the
// tool's argument shape. It records the combined prompt, the raw response,
// and the parsed (or error-annotated) parameters in the trace — always,
// including on parse failure. Parse failure itself is recovered into empty
// Args; whether empty is terminal is the caller's call.
func (p *Pipeline) standardize(ctx context.Context, rawText string, trace *DebugTrace) Args {
	systemPrompt := p.deps.Prompts.Resolve(ctx, p.cfg.Key+"_pre")
	fullPrompt := systemPrompt + "\n\nUser Input: " + rawText

	response := p.deps.LLM.Complete(ctx, systemPrompt, rawText)

	trace.StandardizePrompt = fullPrompt
	trace.StandardizeResponse = response

	args, parameter := parseArgs(p.cfg.Shape, p.cfg.IdentifierField, response)
	trace.StandardizeParameter = parameter
	return args
}
