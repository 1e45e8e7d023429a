package lesson

import (
	"encoding/json"
	"fmt"
	"testing"
)

func validPayload() map[string]any {
	scenes := make([]map[string]any, MinScenes)
	for i := range scenes {
		scenes[i] = map[string]any{
			"order":           MinScenes - i, // deliberately out of order
			"narrative":       fmt.Sprintf("Sahne %d", i+1),
			"visualPrompt":    "bir orman",
			"educationalGoal": "kavramı öğretmek",
		}
	}
	cards := make([]map[string]any, FlashcardCount)
	for i := range cards {
		cards[i] = map[string]any{"term": fmt.Sprintf("terim %d", i), "definition": "tanım", "example": ""}
	}
	quiz := make([]map[string]any, QuizCount)
	for i := range quiz {
		quiz[i] = map[string]any{
			"question":           "Soru?",
			"options":            []string{"A", "B", "C", "D"},
			"correctAnswerIndex": 3,
			"explanation":        "",
		}
	}
	return map[string]any{
		"scenes":     scenes,
		"flashcards": cards,
		"quiz":       quiz,
		"summary":    "Özet.",
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestParseSortsScenes(t *testing.T) {
	c, err := Parse(marshal(t, validPayload()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := 1; i < len(c.Scenes); i++ {
		if c.Scenes[i-1].Order > c.Scenes[i].Order {
			t.Fatalf("scenes not sorted: %+v", c.Scenes)
		}
	}
	if c.Summary != "Özet." {
		t.Errorf("summary = %q", c.Summary)
	}
}

func TestParseRejectsTooFewScenes(t *testing.T) {
	p := validPayload()
	p["scenes"] = p["scenes"].([]map[string]any)[:MinScenes-1]
	if _, err := Parse(marshal(t, p)); err == nil {
		t.Fatal("want error for too few scenes")
	}
}

func TestParseRejectsWrongOptionCount(t *testing.T) {
	p := validPayload()
	p["quiz"].([]map[string]any)[0]["options"] = []string{"A", "B"}
	if _, err := Parse(marshal(t, p)); err == nil {
		t.Fatal("want error for wrong option count")
	}
}

func TestParseRejectsOutOfRangeAnswerIndex(t *testing.T) {
	p := validPayload()
	p["quiz"].([]map[string]any)[0]["correctAnswerIndex"] = OptionCount
	if _, err := Parse(marshal(t, p)); err == nil {
		t.Fatal("want error for out-of-range answer index")
	}
}

func TestParseRejectsMissingSummary(t *testing.T) {
	p := validPayload()
	delete(p, "summary")
	if _, err := Parse(marshal(t, p)); err == nil {
		t.Fatal("want error for missing summary")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	p := validPayload()
	p["extra"] = true
	if _, err := Parse(marshal(t, p)); err == nil {
		t.Fatal("want error for unknown top-level field")
	}
}

func TestParseRejectsProse(t *testing.T) {
	if _, err := Parse([]byte("Elbette, işte dersiniz...")); err == nil {
		t.Fatal("want error for non-JSON response")
	}
}
