package tools

import (
	"fmt"

	"github.com/wealthai-labs/crm-gateway/internal/db"
)

// NewProductCustomers lists the customers holding given products. Product
// identity is required, and unlike the holdings tool the no-target outcome
// also sets the envelope error field.
func NewProductCustomers(deps Deps) *Pipeline {
	return New(deps, Config{
		Key:                "get_customers_by_product_text",
		Description:        "List the customers holding the products referenced in the input text",
		UsageContext:       "Use when asked which customers hold a particular product",
		InputHint:          "Text containing product IDs or product references",
		Shape:              ArgIdentifierList,
		RequireIdentifiers: true,
		NoTargetErrors:     true,
		NoTargetText:       "No product IDs could be extracted from the input.",
		EmptyResultText:    "Product holder search: no customers hold the given products.",
		ErrorPrefix:        "Product holder search failed",
		BuildQuery:         buildProductCustomersQuery,
	})
}

func buildProductCustomersQuery(args Args) (string, []any, error) {
	query := fmt.Sprintf(`SELECT h.product_id, p.product_name, h.customer_id, c.name AS customer_name,
       h.quantity, h.current_value
FROM holdings h
JOIN customers c ON h.customer_id = c.customer_id
JOIN products p ON h.product_id = p.product_id
WHERE h.product_id IN (%s)
ORDER BY h.product_id, h.current_value DESC`, db.Placeholders(len(args.IDs), 0))

	params := make([]any, len(args.IDs))
	for i, id := range args.IDs {
		params[i] = id
	}
	return query, params, nil
}
