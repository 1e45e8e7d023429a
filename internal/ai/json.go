package ai

import "strings"

// ExtractJSON strips markdown code fences from a model response. Models
// wrap JSON in ```json fences despite instructions, sometimes in bare
// ``` fences, sometimes not at all; all three shapes must parse the same.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
