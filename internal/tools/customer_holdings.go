package tools

import (
	"fmt"

	"github.com/wealthai-labs/crm-gateway/internal/db"
)

// NewCustomerHoldings looks up the products held by specific customers.
// Customer identity is required: if standardization yields no IDs, the
// pipeline stops before querying with a fixed message.
func NewCustomerHoldings(deps Deps) *Pipeline {
	return New(deps, Config{
		Key:                "get_customer_holdings",
		Description:        "Get the products a customer currently holds",
		UsageContext:       "Use when asked what a specific customer holds, or to review a customer's portfolio",
		InputHint:          "Customer reference text (customer ID, customer name, etc.)",
		Shape:              ArgIdentifierList,
		RequireIdentifiers: true,
		NoTargetText:       "Could not identify the target customer, so the lookup was not executed.",
		EmptyResultText:    "Holdings search: no holdings were found for the given customers.",
		ErrorPrefix:        "Customer holdings lookup failed",
		BuildQuery:         buildCustomerHoldingsQuery,
	})
}

func buildCustomerHoldingsQuery(args Args) (string, []any, error) {
	query := fmt.Sprintf(`SELECT h.holding_id, h.quantity, h.unit_price, h.current_price, h.current_value,
       h.purchase_date, h.customer_id,
       p.product_code, p.product_name, p.product_type, p.currency,
       c.name AS customer_name
FROM holdings h
JOIN products p ON h.product_id = p.product_id
JOIN customers c ON h.customer_id = c.customer_id
WHERE h.customer_id IN (%s)
ORDER BY h.customer_id, h.current_value DESC`, db.Placeholders(len(args.IDs), 0))

	params := make([]any, len(args.IDs))
	for i, id := range args.IDs {
		params[i] = id
	}
	return query, params, nil
}
