package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentsText(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"json string unquoted", `"customer 42"`, "customer 42"},
		{"escaped string", `"within \"90\" days"`, `within "90" days`},
		{"object passes verbatim", `{"text_input": "customer 42"}`, `{"text_input": "customer 42"}`},
		{"array passes verbatim", `[1, 2]`, `[1, 2]`},
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"whitespace", "  \n ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := MCPParams{Arguments: json.RawMessage(tc.raw)}
			assert.Equal(t, tc.want, p.ArgumentsText())
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Nil(t, ErrorString(""))
	got := ErrorString("boom")
	require.NotNil(t, got)
	assert.Equal(t, "boom", *got)
}

func TestMCPResponse_ErrorFieldAlwaysPresent(t *testing.T) {
	out, err := json.Marshal(MCPResponse{ID: 1, Result: "ok"})
	require.NoError(t, err)
	// Clients rely on a literal null rather than a missing field.
	assert.JSONEq(t, `{"id": 1, "result": "ok", "error": null}`, string(out))
}

func TestMCPRequest_Decode(t *testing.T) {
	var req MCPRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 7,
		"method": "tools/call",
		"params": {"name": "get_customer_holdings", "arguments": "customer 7"}
	}`), &req))
	assert.Equal(t, 7, req.ID)
	assert.Equal(t, "tools/call", req.Method)
	assert.Equal(t, "get_customer_holdings", req.Params.Name)
	assert.Equal(t, "customer 7", req.Params.ArgumentsText())
}
