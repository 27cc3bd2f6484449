package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthai-labs/crm-gateway/internal/db"
)

func salesNoteRow(customerID float64, name, note string) db.Row {
	return db.NewRow(
		[]string{"customer_id", "name", "sales_note"},
		[]any{customerID, name, note},
	)
}

// cashInflowResponder simulates the full fan-out conversation: the pre
// prompt yields three customers, each analysis call parses its note, and
// customer 2's note produces an unparseable response.
func cashInflowResponder(system, user string) (string, error) {
	switch {
	case strings.Contains(system, "_pre"):
		return `{"customer_ids": [1, 2, 3]}`, nil
	case strings.Contains(system, "_analysis"):
		if strings.Contains(user, "note-2") {
			return "the model rambled instead of answering", nil
		}
		return `{"amount": 500000, "date": "2026-09-15"}`, nil
	default:
		return "Two predicted inflows of 500,000 JPY around 2026-09-15.", nil
	}
}

func TestCashInflow_PartialFailureIsolation(t *testing.T) {
	client := &fakeLLMClient{respond: cashInflowResponder}
	q := &fakeQuerier{rows: []db.Row{
		salesNoteRow(1, "Masao Ito", "note-1: expects a deposit"),
		salesNoteRow(2, "Hanako Tanaka", "note-2: unclear"),
		salesNoteRow(3, "Jiro Sato", "note-3: maturity payout coming"),
	}}

	p := NewCashInflowPrediction(newTestDeps(client, q), 1)
	res := p.Invoke(context.Background(), "predict inflows for 1, 2, 3")

	require.NotNil(t, res.Debug)
	assert.Empty(t, res.Err)

	// All three items are present; the failed one keeps its identity with
	// nil values instead of aborting the batch.
	predictions, ok := res.Debug.ExecutedQueryResults.([]Prediction)
	require.True(t, ok)
	require.Len(t, predictions, 3)
	assert.NotNil(t, predictions[0].PredictedAmount)
	assert.Nil(t, predictions[1].PredictedAmount)
	assert.NotNil(t, predictions[2].PredictedAmount)
	assert.Equal(t, "Hanako Tanaka", predictions[1].CustomerName)

	require.NotNil(t, res.Debug.LLMAnalysisCalls)
	assert.Equal(t, 3, *res.Debug.LLMAnalysisCalls)
	require.NotNil(t, res.Debug.PredictionsFound)
	assert.Equal(t, 2, *res.Debug.PredictionsFound)
	require.NotNil(t, res.Debug.CustomersAnalyzed)
	assert.Equal(t, 3, *res.Debug.CustomersAnalyzed)

	require.Len(t, res.Debug.IndividualAnalysis, 3)
	assert.Empty(t, res.Debug.IndividualAnalysis[0].Error)
	assert.Contains(t, res.Debug.IndividualAnalysis[1].Error, "JSON parse error")
	assert.Equal(t, 500000.0, *res.Debug.IndividualAnalysis[2].ParsedAmount)

	assert.Equal(t, 3, res.Debug.ResultsCount)
	assert.Contains(t, res.Text, "500,000")
}

func TestCashInflow_SubTracesKeepRowOrderUnderConcurrency(t *testing.T) {
	client := &fakeLLMClient{respond: cashInflowResponder}
	q := &fakeQuerier{rows: []db.Row{
		salesNoteRow(1, "A", "note-1"),
		salesNoteRow(2, "B", "note-2"),
		salesNoteRow(3, "C", "note-3"),
	}}

	p := NewCashInflowPrediction(newTestDeps(client, q), 4)
	res := p.Invoke(context.Background(), "predict")

	require.Len(t, res.Debug.IndividualAnalysis, 3)
	assert.Equal(t, float64(1), res.Debug.IndividualAnalysis[0].CustomerID)
	assert.Equal(t, float64(2), res.Debug.IndividualAnalysis[1].CustomerID)
	assert.Equal(t, float64(3), res.Debug.IndividualAnalysis[2].CustomerID)
}

func TestCashInflow_EmptyIdentifiersSkipsQueryAndAnalysis(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `{"customer_ids": []}`, nil
	}}
	q := &fakeQuerier{}

	p := NewCashInflowPrediction(newTestDeps(client, q), 1)
	res := p.Invoke(context.Background(), "predict for nobody")

	assert.Empty(t, q.queries)
	assert.Equal(t, "Cash inflow prediction: no sales notes were found for the given customers.", res.Text)
	assert.Empty(t, res.Err)
	require.NotNil(t, res.Debug.CustomersAnalyzed)
	assert.Equal(t, 0, *res.Debug.CustomersAnalyzed)
	assert.Equal(t, 1, client.callCount(), "only the standardization call")
}

func TestCashInflow_MissingNoteColumn(t *testing.T) {
	client := &fakeLLMClient{respond: cashInflowResponder}
	q := &fakeQuerier{rows: []db.Row{
		db.NewRow([]string{"customer_id", "name"}, []any{float64(1), "A"}),
	}}

	p := NewCashInflowPrediction(newTestDeps(client, q), 1)
	res := p.Invoke(context.Background(), "predict")

	require.Len(t, res.Debug.IndividualAnalysis, 1)
	assert.Contains(t, res.Debug.IndividualAnalysis[0].Error, "sales_note")
	require.NotNil(t, res.Debug.LLMAnalysisCalls)
	assert.Equal(t, 0, *res.Debug.LLMAnalysisCalls)
}
