package tools

// DebugTrace is the per-invocation diagnostic record. It accumulates across
// the pipeline stages and is returned on every response, success or failure;
// slots for stages that never ran stay empty. It is an auxiliary channel:
// nothing downstream depends on it for correctness.
type DebugTrace struct {
	StandardizePrompt    string `json:"standardize_prompt,omitempty"`
	StandardizeResponse  string `json:"standardize_response,omitempty"`
	StandardizeParameter string `json:"standardize_parameter,omitempty"`

	ExecutedQuery        string `json:"executed_query,omitempty"`
	ExecutedQueryResults any    `json:"executed_query_results,omitempty"`

	FormatRequest  string `json:"format_request,omitempty"`
	FormatResponse string `json:"format_response,omitempty"`

	Error string `json:"error,omitempty"`

	ExecutionTimeMS float64 `json:"execution_time_ms"`
	ResultsCount    int     `json:"results_count"`

	// Fan-out slots, populated only by per-item analysis tools.
	CustomersAnalyzed  *int           `json:"customers_analyzed,omitempty"`
	LLMAnalysisCalls   *int           `json:"llm_analysis_calls,omitempty"`
	PredictionsFound   *int           `json:"predictions_found,omitempty"`
	IndividualAnalysis []ItemAnalysis `json:"individual_analysis,omitempty"`
}

// ItemAnalysis is the sub-trace for one fan-out item. A failed item carries
// Error and empty parsed fields; the batch keeps going either way.
type ItemAnalysis struct {
	CustomerID   any      `json:"customer_id"`
	CustomerName string   `json:"customer_name"`
	LLMResponse  string   `json:"llm_response,omitempty"`
	ParsedAmount *float64 `json:"parsed_amount,omitempty"`
	ParsedDate   *string  `json:"parsed_date,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func intPtr(v int) *int { return &v }
