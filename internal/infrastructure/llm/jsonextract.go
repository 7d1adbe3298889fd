package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON isolates the JSON object inside an LLM reply that may be wrapped
// in markdown fences or surrounded by prose. Preference order: a ```json
// fence, then any fence containing a brace pair, then the span from the first
// "{" to the last "}". The second return is false when no object is present.
func ExtractJSON(raw string) (string, bool) {
	content := raw

	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			content = rest[:j]
		} else {
			content = rest
		}
	} else if strings.Contains(content, "```") {
		for _, part := range strings.Split(content, "```") {
			if strings.Contains(part, "{") && strings.Contains(part, "}") {
				content = part
				break
			}
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return strings.TrimSpace(content[start : end+1]), true
}

// DecodeJSON extracts the JSON object from raw and unmarshals it into v.
// Callers are expected to substitute their own fallback value on error; a
// failed decode is a degraded result, not a pipeline fault.
func DecodeJSON(raw string, v any) error {
	span, ok := ExtractJSON(raw)
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("decode response JSON: %w", err)
	}
	return nil
}
