package tools

import (
	"fmt"
	"strings"
)

// NewBondMaturitySearch searches customers holding bonds by maturity
// condition. All three filters are optional: an unparseable standardization
// result simply means an unfiltered bond-holder listing.
func NewBondMaturitySearch(deps Deps) *Pipeline {
	return New(deps, Config{
		Key:             "search_customers_by_bond_maturity",
		Description:     "Search customers by bond maturity conditions",
		UsageContext:    "Use when looking for customers holding bonds that mature soon or within a given period",
		InputHint:       "Maturity condition text (e.g. \"within 2 years\", \"within 6 months\")",
		Shape:           ArgObject,
		EmptyResultText: "Bond maturity search: no matching customers were found.",
		ErrorPrefix:     "Bond maturity search failed",
		BuildQuery:      buildBondMaturityQuery,
	})
}

// buildBondMaturityQuery appends one clause per present filter. The
// day-count filter binds the integer and computes the interval database-
// side via make_interval, so no value ever lands in the SQL text. A day
// count of zero counts as absent, same as the date filters treat blank.
func buildBondMaturityQuery(args Args) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT c.customer_id, c.name, c.email, c.phone, c.risk_tolerance,
       h.maturity_date, p.product_name, p.product_type
FROM customers c
JOIN holdings h ON c.customer_id = h.customer_id
JOIN products p ON h.product_id = p.product_id
WHERE (p.product_type ILIKE '%bond%' OR p.product_type ILIKE '%債券%')`)

	var params []any

	if days, ok := intField(args.Fields, "days_until_maturity"); ok && days != 0 {
		params = append(params, days)
		fmt.Fprintf(&sb, "\n  AND h.maturity_date <= CURRENT_DATE + make_interval(days => $%d)", len(params))
	}
	if from, ok := stringField(args.Fields, "maturity_date_from"); ok {
		params = append(params, from)
		fmt.Fprintf(&sb, "\n  AND h.maturity_date >= $%d", len(params))
	}
	if to, ok := stringField(args.Fields, "maturity_date_to"); ok {
		params = append(params, to)
		fmt.Fprintf(&sb, "\n  AND h.maturity_date <= $%d", len(params))
	}

	sb.WriteString("\nORDER BY h.maturity_date ASC")
	return sb.String(), params, nil
}
