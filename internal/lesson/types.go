package lesson

// Scene is one narrative step of a generated lesson. Narrative text is
// Turkish; the visual prompt is an English image-generation description.
type Scene struct {
	Order           int    `json:"order"`
	Narrative       string `json:"narrative"`
	VisualPrompt    string `json:"visualPrompt"`
	EducationalGoal string `json:"educationalGoal"`
}

// Flashcard is a term/definition/example triple.
type Flashcard struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

// QuizQuestion is a four-option multiple-choice question.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// Content is the full structured output of the lesson generation stage.
type Content struct {
	Scenes     []Scene        `json:"scenes"`
	Flashcards []Flashcard    `json:"flashcards"`
	Quiz       []QuizQuestion `json:"quiz"`
	Summary    string         `json:"summary"`
}
