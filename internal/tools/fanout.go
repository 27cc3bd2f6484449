package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wealthai-labs/crm-gateway/internal/db"
)

// Prediction is one fan-out analysis outcome. Nil amount/date mean the
// item's note yielded no usable prediction (or the item failed).
type Prediction struct {
	CustomerID      any      `json:"customer_id"`
	CustomerName    string   `json:"customer_name"`
	PredictedAmount *float64 `json:"predicted_amount"`
	PredictedDate   *string  `json:"predicted_date"`
}

// analyze runs the per-item analysis loop: one LLM call per fetched row,
// parsing each response as {amount, date}. Items fail independently — a
// failed parse is recorded in that item's sub-trace and the batch moves on.
// Concurrency is bounded by config; results and sub-traces keep row order
// regardless of the bound.
func (p *Pipeline) analyze(ctx context.Context, rows []db.Row, trace *DebugTrace) []Prediction {
	trace.CustomersAnalyzed = intPtr(len(rows))
	trace.LLMAnalysisCalls = intPtr(0)
	trace.PredictionsFound = intPtr(0)
	if len(rows) == 0 {
		return []Prediction{}
	}

	analysisPrompt := p.deps.Prompts.Resolve(ctx, p.cfg.FanOut.AnalysisPromptKey)

	predictions := make([]Prediction, len(rows))
	analyses := make([]ItemAnalysis, len(rows))

	limit := p.cfg.FanOut.Concurrency
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, row := range rows {
		wg.Add(1)
		go func(i int, row db.Row) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			predictions[i], analyses[i] = p.analyzeOne(ctx, analysisPrompt, row)
		}(i, row)
	}
	wg.Wait()

	calls := 0
	found := 0
	for _, a := range analyses {
		if a.Error == "" || a.LLMResponse != "" {
			calls++
		}
		if a.ParsedAmount != nil {
			found++
		}
	}
	trace.LLMAnalysisCalls = intPtr(calls)
	trace.PredictionsFound = intPtr(found)
	trace.IndividualAnalysis = analyses
	return predictions
}

// analyzeOne handles a single row. Failures stay local: the prediction
// keeps the customer identity with nil values and the sub-trace records
// the cause.
func (p *Pipeline) analyzeOne(ctx context.Context, analysisPrompt string, row db.Row) (Prediction, ItemAnalysis) {
	customerID := row.Get("customer_id")
	customerName, _ := row.Get("name").(string)

	prediction := Prediction{CustomerID: customerID, CustomerName: customerName}
	analysis := ItemAnalysis{CustomerID: customerID, CustomerName: customerName}

	note, _ := row.Get(p.cfg.FanOut.NoteColumn).(string)
	if note == "" {
		analysis.Error = fmt.Sprintf("missing %s column", p.cfg.FanOut.NoteColumn)
		return prediction, analysis
	}

	response := p.deps.LLM.Complete(ctx, analysisPrompt, note)
	analysis.LLMResponse = response

	var parsed struct {
		Amount *float64 `json:"amount"`
		Date   *string  `json:"date"`
	}
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		analysis.Error = "JSON parse error: " + err.Error()
		return prediction, analysis
	}

	prediction.PredictedAmount = parsed.Amount
	prediction.PredictedDate = parsed.Date
	analysis.ParsedAmount = parsed.Amount
	analysis.ParsedDate = parsed.Date
	return prediction, analysis
}
