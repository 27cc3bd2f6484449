// Package tools implements the gateway's core: a generic three-stage tool
// pipeline (LLM argument standardization → parameterized SQL → LLM result
// formatting) driven by per-tool configuration records, plus the registry
// that dispatches tool names to pipelines.
package tools

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wealthai-labs/crm-gateway/internal/db"
	"github.com/wealthai-labs/crm-gateway/internal/llm"
)

// PromptResolver resolves a symbolic prompt key to prompt text. It never
// fails; the prompt store substitutes fallback text on any miss.
type PromptResolver interface {
	Resolve(ctx context.Context, key string) string
}

// Deps are the pipeline's collaborators, injected at construction so tests
// can substitute fakes. No package-level state.
type Deps struct {
	LLM     *llm.Gateway
	Prompts PromptResolver
	DB      db.Querier
}

// state tracks pipeline progress. Stages run strictly in order; ERROR
// absorbs unexpected failures from any of the first three.
type state int

const (
	stateInit state = iota
	stateStandardizing
	stateQuerying
	stateFormatting
	stateDone
	stateError
)

// Config describes one tool declaratively: prompt keys, argument shape,
// canned texts, and the query builder. The engine in Invoke is shared by
// every tool; only Config varies.
type Config struct {
	// Key is the tool name and the prefix for its prompt keys
	// ("<Key>_pre", "<Key>_post").
	Key          string
	Description  string
	UsageContext string
	// InputHint describes the text_input parameter in tool listings.
	InputHint string

	// Shape selects object vs identifier-list argument parsing;
	// IdentifierField names the object field holding an identifier list,
	// when the tool nests one.
	Shape           ArgShape
	IdentifierField string

	// RequireIdentifiers makes an empty identifier set a terminal outcome:
	// the pipeline stops before querying, with NoTargetText as the result.
	// Documented behavior, not an error state.
	RequireIdentifiers bool
	// NoTargetErrors additionally sets the envelope error field on the
	// no-target outcome.
	NoTargetErrors bool
	NoTargetText   string

	// EmptyResultText is returned verbatim when the query matches nothing;
	// the formatter makes no LLM call in that case.
	EmptyResultText string

	// ErrorPrefix prefixes the user-facing message when the pipeline
	// aborts.
	ErrorPrefix string

	// BuildQuery renders the parameterized SQL for the standardized
	// arguments. Every user-influenced value must be returned as a bound
	// parameter; the builder never interpolates values into the text.
	BuildQuery func(args Args) (string, []any, error)

	// FanOut, when set, inserts a per-row LLM analysis stage between
	// querying and formatting.
	FanOut *FanOutConfig
}

// FanOutConfig bounds the per-item analysis loop.
type FanOutConfig struct {
	// AnalysisPromptKey resolves the per-item system prompt.
	AnalysisPromptKey string
	// NoteColumn is the row column fed to the per-item analysis call.
	NoteColumn string
	// Concurrency caps parallel analysis calls; values below 2 keep the
	// original sequential behavior.
	Concurrency int
}

// Result is a pipeline's uniform outcome. Text is always a human-readable
// string (error messages included); Err is set only when the pipeline
// itself failed; Debug is always present.
type Result struct {
	Text  string
	Err   string
	Debug *DebugTrace
}

// Pipeline is one tool: a Config bound to its collaborators.
type Pipeline struct {
	cfg  Config
	deps Deps
}

func New(deps Deps, cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps}
}

// Name returns the tool key this pipeline serves.
func (p *Pipeline) Name() string {
	return p.cfg.Key
}

// Definition returns the tool's listing metadata.
func (p *Pipeline) Definition() Definition {
	return Definition{
		Name:         p.cfg.Key,
		Description:  p.cfg.Description,
		UsageContext: p.cfg.UsageContext,
		InputHint:    p.cfg.InputHint,
	}
}

// Invoke runs one tool invocation end to end. It always returns a Result
// with non-empty Text and a non-nil Debug trace, whatever failed along the
// way.
func (p *Pipeline) Invoke(ctx context.Context, rawArgs string) (res *Result) {
	start := time.Now()
	trace := &DebugTrace{}
	current := stateInit

	// Unexpected failures anywhere in the stages are absorbed here, with
	// the trace preserved up to the point of failure.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] panic in state %d: %v", p.cfg.Key, current, r)
			res = p.fail(trace, start, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	log.Printf("[%s] invocation start", p.cfg.Key)

	// INIT -> STANDARDIZING
	current = stateStandardizing
	args := p.standardize(ctx, rawArgs, trace)

	if p.cfg.RequireIdentifiers && len(args.IDs) == 0 {
		// Terminal documented outcome, not an error transition.
		current = stateDone
		trace.Error = "no identifiers extracted"
		trace.ExecutionTimeMS = elapsedMS(start)
		log.Printf("[%s] no identifiers extracted, stopping before query", p.cfg.Key)
		out := &Result{Text: p.cfg.NoTargetText, Debug: trace}
		if p.cfg.NoTargetErrors {
			out.Err = p.cfg.NoTargetText
		}
		return out
	}

	// STANDARDIZING -> QUERYING
	current = stateQuerying
	var rows []db.Row
	if p.cfg.FanOut != nil && len(args.IDs) == 0 {
		// Fan-out with nothing to analyze: skip the fetch, format the
		// empty set.
		rows = nil
	} else {
		query, params, err := p.cfg.BuildQuery(args)
		if err != nil {
			current = stateError
			return p.fail(trace, start, err)
		}
		trace.ExecutedQuery = query
		rows, err = p.deps.DB.Run(ctx, query, params...)
		if err != nil {
			current = stateError
			return p.fail(trace, start, err)
		}
	}

	// QUERYING -> FORMATTING (always, zero rows included)
	current = stateFormatting
	var text string
	if p.cfg.FanOut != nil {
		predictions := p.analyze(ctx, rows, trace)
		trace.ExecutedQueryResults = predictions
		trace.ResultsCount = len(predictions)
		text = p.format(ctx, predictions, len(predictions), trace)
	} else {
		trace.ExecutedQueryResults = rows
		trace.ResultsCount = len(rows)
		text = p.format(ctx, rows, len(rows), trace)
	}

	// FORMATTING -> DONE
	current = stateDone
	trace.ExecutionTimeMS = elapsedMS(start)
	log.Printf("[%s] done: %d results in %.0fms", p.cfg.Key, trace.ResultsCount, trace.ExecutionTimeMS)
	return &Result{Text: text, Debug: trace}
}

// fail finalizes the ERROR state: user-facing message as result text, the
// cause in the error slot, trace kept as-is for the stages that ran.
func (p *Pipeline) fail(trace *DebugTrace, start time.Time, err error) *Result {
	trace.Error = err.Error()
	trace.ExecutionTimeMS = elapsedMS(start)
	log.Printf("[%s] error: %v", p.cfg.Key, err)
	return &Result{
		Text:  fmt.Sprintf("%s: %v", p.cfg.ErrorPrefix, err),
		Err:   err.Error(),
		Debug: trace,
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
