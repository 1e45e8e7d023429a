package lesson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	MinScenes      = 5
	MaxScenes      = 7
	FlashcardCount = 5
	QuizCount      = 5
	OptionCount    = 4
)

// BuildLessonJSONSchema returns the JSON-Schema constraint for generated
// lesson content. It is enforced locally on every model response.
func BuildLessonJSONSchema() map[string]any {
	scene := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"order", "narrative", "visualPrompt", "educationalGoal"},
		"properties": map[string]any{
			"order":           map[string]any{"type": "integer", "minimum": 1},
			"narrative":       map[string]any{"type": "string", "minLength": 1},
			"visualPrompt":    map[string]any{"type": "string", "minLength": 1},
			"educationalGoal": map[string]any{"type": "string", "minLength": 1},
		},
	}
	flashcard := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"term", "definition"},
		"properties": map[string]any{
			"term":       map[string]any{"type": "string", "minLength": 1},
			"definition": map[string]any{"type": "string", "minLength": 1},
			"example":    map[string]any{"type": "string"},
		},
	}
	question := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"question", "options", "correctAnswerIndex", "explanation"},
		"properties": map[string]any{
			"question":           map[string]any{"type": "string", "minLength": 1},
			"options":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": OptionCount, "maxItems": OptionCount},
			"correctAnswerIndex": map[string]any{"type": "integer", "minimum": 0, "maximum": OptionCount - 1},
			"explanation":        map[string]any{"type": "string"},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"scenes", "flashcards", "quiz", "summary"},
		"properties": map[string]any{
			"scenes":     map[string]any{"type": "array", "items": scene, "minItems": MinScenes, "maxItems": MaxScenes},
			"flashcards": map[string]any{"type": "array", "items": flashcard, "minItems": 1, "maxItems": FlashcardCount},
			"quiz":       map[string]any{"type": "array", "items": question, "minItems": 1, "maxItems": QuizCount},
			"summary":    map[string]any{"type": "string"},
		},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Parse decodes and validates a lesson content document. Scenes are sorted
// by their order field; the pipeline never guesses structure from a
// malformed response.
func Parse(data []byte) (Content, error) {
	if err := ValidateJSONAgainstSchema(BuildLessonJSONSchema(), data); err != nil {
		return Content{}, err
	}
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("unmarshal lesson: %w", err)
	}
	sort.SliceStable(c.Scenes, func(i, j int) bool { return c.Scenes[i].Order < c.Scenes[j].Order })
	return c, nil
}
