package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *fakeQuerier) {
	client := &fakeLLMClient{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "_pre") {
			return `[1]`, nil
		}
		return "formatted", nil
	}}
	q := &fakeQuerier{}
	deps := newTestDeps(client, q)

	m := NewManager()
	m.Register(NewBondMaturitySearch(deps))
	m.Register(NewCustomerHoldings(deps))
	m.Register(NewCashInflowPrediction(deps, 1))
	m.Register(NewProductCustomers(deps))
	return m, q
}

func TestManager_RegistrationOrderAndCount(t *testing.T) {
	m, _ := newTestManager()
	assert.Equal(t, 4, m.Count())

	defs := m.Definitions()
	require.Len(t, defs, 4)
	assert.Equal(t, "search_customers_by_bond_maturity", defs[0].Name)
	assert.Equal(t, "get_customer_holdings", defs[1].Name)
	assert.Equal(t, "predict_cash_inflow_from_sales_notes", defs[2].Name)
	assert.Equal(t, "get_customers_by_product_text", defs[3].Name)
	for _, d := range defs {
		assert.NotEmpty(t, d.Description)
	}
}

func TestManager_ExecuteUnknownTool(t *testing.T) {
	m, _ := newTestManager()
	res, err := m.Execute(context.Background(), "no_such_tool", "text")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestManager_ExecuteDispatches(t *testing.T) {
	m, q := newTestManager()
	res, err := m.Execute(context.Background(), "get_customer_holdings", "customer 1")
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.Debug)
	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0], "holdings")
}

func TestDefinition_InputSchemaRequiresTextInput(t *testing.T) {
	m, _ := newTestManager()
	for _, d := range m.Definitions() {
		schema := d.InputSchema()
		assert.Equal(t, "object", schema.Type)
		require.Contains(t, schema.Properties, "text_input")
		assert.Equal(t, []string{"text_input"}, schema.Required)
	}
}
