package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ArgShape selects how a tool's standardized arguments are parsed out of
// the LLM response.
type ArgShape int

const (
	// ArgObject expects a JSON object with named optional fields.
	ArgObject ArgShape = iota
	// ArgIdentifierList expects a flat JSON array of identifiers.
	ArgIdentifierList
)

// Args is the standardized-argument value a pipeline works with. Fields is
// populated for ArgObject tools, IDs for ArgIdentifierList tools — or for
// ArgObject tools that nest an identifier list under a named field.
type Args struct {
	Fields map[string]any
	IDs    []string
}

// parseArgs interprets the LLM's textual response according to the tool's
// shape. A parse failure is not an error to the caller: it yields empty
// Args plus a human-readable annotation for the trace, and the pipeline
// decides whether empty is terminal.
func parseArgs(shape ArgShape, identifierField, response string) (Args, string) {
	payload := extractJSON(response)

	switch shape {
	case ArgIdentifierList:
		var raw []any
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			return Args{}, "JSON parse error: " + err.Error()
		}
		ids := toIdentifiers(raw)
		return Args{IDs: ids}, fmt.Sprintf("%v", ids)

	default:
		var fields map[string]any
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return Args{}, "JSON parse error: " + err.Error()
		}
		args := Args{Fields: fields}
		if identifierField != "" {
			if raw, ok := fields[identifierField].([]any); ok {
				args.IDs = toIdentifiers(raw)
			}
		}
		compact, _ := json.Marshal(fields)
		return args, string(compact)
	}
}

// toIdentifiers normalizes a JSON array of numbers and strings into a flat
// string slice; identifiers travel to the query layer as bound parameters
// and the driver handles the cast.
func toIdentifiers(raw []any) []string {
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				ids = append(ids, trimmed)
			}
		case float64:
			ids = append(ids, strconv.FormatFloat(id, 'f', -1, 64))
		}
	}
	return ids
}

// extractJSON strips markdown code fences and surrounding prose so a
// response like "```json\n{...}\n```" still parses. Models wrap JSON this
// way often enough that the standardizer has to tolerate it.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end > start {
		return s[start : end+1]
	}
	return s
}

// intField reads an integer-valued field out of parsed JSON, accepting the
// number and numeric-string encodings models produce.
func intField(fields map[string]any, name string) (int, bool) {
	switch v := fields[name].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// stringField reads a non-empty string field out of parsed JSON.
func stringField(fields map[string]any, name string) (string, bool) {
	if v, ok := fields[name].(string); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}
