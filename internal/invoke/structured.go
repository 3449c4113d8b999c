// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-invocation R6 (structured output extraction).
package invoke

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStructuredOutput parses a model's textual answer as a JSON
// object. Strict parsing is tried first; if the model wrapped the JSON
// in markdown code fences they are stripped and parsing is retried.
// Top-level arrays and scalars are rejected since downstream consumers
// address fields by key.
func ParseStructuredOutput(text string) (map[string]any, error) {
	parsed, err := parseJSONObject(text)
	if err == nil {
		return parsed, nil
	}

	stripped := stripCodeFences(text)
	if stripped != text {
		if parsed, retryErr := parseJSONObject(stripped); retryErr == nil {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("parsing structured output: %w", err)
}

func parseJSONObject(text string) (map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &value); err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("structured output is %T, want object", value)
	}
	return obj, nil
}

// FetchStructuredOutputSchema extracts the JSON schema from a node's
// structured-output declaration. The declaration wraps the schema in a
// "schema" key; a declaration without one is a configuration error.
func FetchStructuredOutputSchema(declaration map[string]any) (map[string]any, error) {
	if declaration == nil {
		return nil, fmt.Errorf("structured output is enabled but no schema is declared")
	}
	schema, ok := declaration["schema"].(map[string]any)
	if !ok || len(schema) == 0 {
		return nil, fmt.Errorf("structured output declaration has no schema")
	}
	return schema, nil
}

// stripCodeFences removes a single wrapping ```...``` fence, with or
// without a language tag.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if first == "json" || first == "JSON" {
			trimmed = trimmed[idx+1:]
		}
	}
	return strings.TrimSpace(trimmed)
}
