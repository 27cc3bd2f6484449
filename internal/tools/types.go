package tools

// Definition is a tool's listing metadata, served by tools/list and the
// descriptions endpoint.
type Definition struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	UsageContext string `json:"usage_context,omitempty"`
	InputHint    string `json:"-"`
}

// JSONSchema is the schema representation used for tool input listings.
// Every CRM tool takes a single free-text parameter; the standardizer
// coerces it, so the schema stays deliberately loose.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// InputSchema renders the tool's input contract: one required text_input
// string.
func (d Definition) InputSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"text_input": {
				Type:        "string",
				Description: d.InputHint,
			},
		},
		Required: []string{"text_input"},
	}
}
