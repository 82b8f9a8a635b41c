package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanModelJSON strips markdown code fences and leading prose from a
// model response so the remainder parses as a JSON object.
func CleanModelJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// If the response starts with prose, cut to the outermost object.
	if !strings.HasPrefix(cleaned, "{") {
		if idx := strings.Index(cleaned, "{"); idx >= 0 {
			cleaned = cleaned[idx:]
		}
	}
	if !strings.HasSuffix(cleaned, "}") {
		if idx := strings.LastIndex(cleaned, "}"); idx >= 0 {
			cleaned = cleaned[:idx+1]
		}
	}
	return cleaned
}

// UnmarshalModelJSON cleans a model response and unmarshals it into out.
func UnmarshalModelJSON(raw string, out any) error {
	cleaned := CleanModelJSON(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse model JSON: %w", err)
	}
	return nil
}
