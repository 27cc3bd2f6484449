package tools

import (
	"fmt"

	"github.com/wealthai-labs/crm-gateway/internal/db"
)

// NewCashInflowPrediction extracts expected cash inflows from sales notes.
// This is the fan-out tool: after fetching the notes for the standardized
// customer set, it runs one LLM analysis call per note before the aggregate
// formatting stage. An empty customer set is not terminal here — it yields
// the empty-result text with zero analysis calls.
func NewCashInflowPrediction(deps Deps, concurrency int) *Pipeline {
	return New(deps, Config{
		Key:             "predict_cash_inflow_from_sales_notes",
		Description:     "Predict expected cash inflows from customer sales notes",
		UsageContext:    "Use when estimating upcoming deposits or cash inflows mentioned in sales conversation notes",
		InputHint:       "Customer reference text for the prediction (customer IDs, names, or \"all\")",
		Shape:           ArgObject,
		IdentifierField: "customer_ids",
		EmptyResultText: "Cash inflow prediction: no sales notes were found for the given customers.",
		ErrorPrefix:     "Cash inflow prediction failed",
		BuildQuery:      buildCashInflowQuery,
		FanOut: &FanOutConfig{
			AnalysisPromptKey: "predict_cash_inflow_from_sales_notes_analysis",
			NoteColumn:        "sales_note",
			Concurrency:       concurrency,
		},
	})
}

func buildCashInflowQuery(args Args) (string, []any, error) {
	query := fmt.Sprintf(`SELECT c.customer_id, c.name, sn.content AS sales_note
FROM customers c
JOIN sales_notes sn ON c.customer_id = sn.customer_id
WHERE c.customer_id IN (%s)
ORDER BY c.customer_id`, db.Placeholders(len(args.IDs), 0))

	params := make([]any, len(args.IDs))
	for i, id := range args.IDs {
		params[i] = id
	}
	return query, params, nil
}
