package tools

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthai-labs/crm-gateway/internal/db"
	"github.com/wealthai-labs/crm-gateway/internal/llm"
)

// fakeLLMClient dispatches on the system prompt, which the fake prompt
// resolver makes identifiable per stage ("PROMPT:<key>").
type fakeLLMClient struct {
	mu      sync.Mutex
	calls   []fakeLLMCall
	respond func(system, user string) (string, error)
}

type fakeLLMCall struct {
	System string
	User   string
}

func (f *fakeLLMClient) Generate(_ context.Context, system, user string, _ *llm.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeLLMCall{System: system, User: user})
	f.mu.Unlock()
	return f.respond(system, user)
}

func (f *fakeLLMClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLMClient) callsFor(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c.System, stage) {
			n++
		}
	}
	return n
}

type fakePrompts struct{}

func (fakePrompts) Resolve(_ context.Context, key string) string {
	return "PROMPT:" + key
}

type fakeQuerier struct {
	mu      sync.Mutex
	queries []string
	argsLog [][]any
	rows    []db.Row
	err     error
}

func (f *fakeQuerier) Run(_ context.Context, query string, args ...any) ([]db.Row, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.argsLog = append(f.argsLog, args)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func newTestDeps(client *fakeLLMClient, q *fakeQuerier) Deps {
	return Deps{
		LLM:     llm.NewGateway(client, llm.GatewayConfig{}),
		Prompts: fakePrompts{},
		DB:      q,
	}
}

func holdingsRow(customerID float64, product string, value float64) db.Row {
	return db.NewRow(
		[]string{"holding_id", "customer_id", "customer_name", "product_name", "current_value"},
		[]any{float64(1), customerID, "Masao Ito", product, value},
	)
}

func TestCustomerHoldings_Scenario(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "_pre") {
			return `[42]`, nil
		}
		return "Customer 42 holds two products worth 1,500,000 JPY in total.", nil
	}}
	q := &fakeQuerier{rows: []db.Row{
		holdingsRow(42, "Global Bond Fund", 1000000),
		holdingsRow(42, "Equity Index Fund", 500000),
	}}

	p := NewCustomerHoldings(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "customer 42's portfolio")

	require.NotNil(t, res.Debug)
	assert.Empty(t, res.Err)
	assert.Contains(t, res.Text, "42")
	assert.Equal(t, 2, res.Debug.ResultsCount)
	assert.Equal(t, []any{"42"}, q.argsLog[0])
	assert.Contains(t, res.Debug.ExecutedQuery, "h.customer_id IN ($1)")
	assert.Contains(t, res.Debug.StandardizePrompt, "customer 42's portfolio")
	assert.Equal(t, `[42]`, res.Debug.StandardizeResponse)
	assert.NotEmpty(t, res.Debug.FormatRequest)
	assert.Equal(t, res.Text, res.Debug.FormatResponse)
}

func TestEmptyRows_SkipsFormatterLLMCall(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `{"days_until_maturity": 90}`, nil
	}}
	q := &fakeQuerier{rows: nil}

	p := NewBondMaturitySearch(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "within 90 days")

	assert.Equal(t, "Bond maturity search: no matching customers were found.", res.Text)
	assert.Empty(t, res.Err)
	// Only the standardization call; the formatter must not touch the LLM.
	assert.Equal(t, 1, client.callCount())
	assert.Empty(t, res.Debug.FormatRequest)
	assert.Equal(t, 0, res.Debug.ResultsCount)
}

func TestBondMaturity_DayCountIsBound(t *testing.T) {
	for _, days := range []int{90, 730, 36500} {
		client := &fakeLLMClient{respond: func(system, user string) (string, error) {
			return `{"days_until_maturity": ` + strconv.Itoa(days) + `}`, nil
		}}
		q := &fakeQuerier{}
		p := NewBondMaturitySearch(newTestDeps(client, q))
		p.Invoke(context.Background(), "maturity search")

		require.Len(t, q.queries, 1)
		query := q.queries[0]
		assert.NotContains(t, query, strconv.Itoa(days), "day count must never appear in SQL text")
		assert.Contains(t, query, "make_interval(days => $1)")
		assert.Equal(t, []any{days}, q.argsLog[0])
	}
}

func TestBondMaturity_ZeroDayCountMeansNoFilter(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `{"days_until_maturity": 0}`, nil
	}}
	q := &fakeQuerier{}
	p := NewBondMaturitySearch(newTestDeps(client, q))
	p.Invoke(context.Background(), "maturing bonds")

	require.Len(t, q.queries, 1)
	assert.NotContains(t, q.queries[0], "make_interval")
	assert.Empty(t, q.argsLog[0])
}

func TestBondMaturity_DateRangeBound(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `{"maturity_date_from": "2025-01-01", "maturity_date_to": "2026-12-31"}`, nil
	}}
	q := &fakeQuerier{}
	p := NewBondMaturitySearch(newTestDeps(client, q))
	p.Invoke(context.Background(), "between 2025 and 2026")

	require.Len(t, q.queries, 1)
	assert.NotContains(t, q.queries[0], "2025-01-01")
	assert.Contains(t, q.queries[0], "h.maturity_date >= $1")
	assert.Contains(t, q.queries[0], "h.maturity_date <= $2")
	assert.Equal(t, []any{"2025-01-01", "2026-12-31"}, q.argsLog[0])
}

func TestBondMaturity_ParseFailureMeansNoFilter(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "_pre") {
			return "I could not determine the parameters.", nil
		}
		return "formatted", nil
	}}
	q := &fakeQuerier{rows: []db.Row{holdingsRow(1, "Corporate Bond A", 100)}}

	p := NewBondMaturitySearch(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "???")

	// The query still runs, unfiltered.
	require.Len(t, q.queries, 1)
	assert.Empty(t, q.argsLog[0])
	assert.Empty(t, res.Err)
	assert.Contains(t, res.Debug.StandardizeParameter, "JSON parse error")
}

func TestIdentifierRequired_EmptySetTerminatesBeforeQuery(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `[]`, nil
	}}
	q := &fakeQuerier{}

	p := NewCustomerHoldings(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "everyone")

	assert.Empty(t, q.queries, "no query may be issued without identifiers")
	assert.Equal(t, "Could not identify the target customer, so the lookup was not executed.", res.Text)
	// Documented outcome for the holdings tool, not a pipeline error.
	assert.Empty(t, res.Err)
	require.NotNil(t, res.Debug)
	assert.Equal(t, "no identifiers extracted", res.Debug.Error)
	assert.NotEmpty(t, res.Debug.StandardizeResponse)
}

func TestProductCustomers_NoTargetSetsError(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `not json`, nil
	}}
	q := &fakeQuerier{}

	p := NewProductCustomers(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "some product")

	assert.Empty(t, q.queries)
	assert.Equal(t, "No product IDs could be extracted from the input.", res.Text)
	assert.Equal(t, res.Text, res.Err)
	require.NotNil(t, res.Debug)
}

func TestDBError_AbortsWithTraceIntact(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return `["7"]`, nil
	}}
	q := &fakeQuerier{err: errors.New("connection refused")}

	p := NewCustomerHoldings(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "customer 7")

	assert.Contains(t, res.Text, "Customer holdings lookup failed")
	assert.Contains(t, res.Err, "connection refused")
	require.NotNil(t, res.Debug)
	// Stages that ran keep their slots; the formatter slot stays empty.
	assert.NotEmpty(t, res.Debug.StandardizeResponse)
	assert.NotEmpty(t, res.Debug.ExecutedQuery)
	assert.Empty(t, res.Debug.FormatRequest)
}

func TestLLMFailure_StillProducesResponse(t *testing.T) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		return "", errors.New("service unavailable")
	}}
	q := &fakeQuerier{}

	p := NewCustomerHoldings(newTestDeps(client, q))
	res := p.Invoke(context.Background(), "customer 1")

	// The LLM failure degrades into an unparseable response, which for an
	// identifier tool is the documented no-target outcome.
	assert.NotEmpty(t, res.Text)
	require.NotNil(t, res.Debug)
	assert.Contains(t, res.Debug.StandardizeResponse, "LLM error")
	assert.Empty(t, q.queries)
}

func TestPipeline_Idempotent(t *testing.T) {
	newFixture := func() *Pipeline {
		client := &fakeLLMClient{respond: func(system, user string) (string, error) {
			if strings.Contains(system, "_pre") {
				return `[42]`, nil
			}
			return "deterministic summary for " + user[:4], nil
		}}
		q := &fakeQuerier{rows: []db.Row{holdingsRow(42, "Fund A", 10)}}
		return NewCustomerHoldings(newTestDeps(client, q))
	}

	first := newFixture().Invoke(context.Background(), "customer 42")
	second := newFixture().Invoke(context.Background(), "customer 42")
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Debug.ExecutedQuery, second.Debug.ExecutedQuery)
	assert.Equal(t, first.Debug.StandardizeParameter, second.Debug.StandardizeParameter)
}
