package ai

import (
	"fmt"
	"strings"
)

// OCRPrompt instructs the vision model to transcribe Turkish study
// material page by page into a strict JSON envelope. The source documents
// are Turkish, so the instructions are too.
const OCRPrompt = `Bu eğitim materyalini analiz et. Tüm metin içeriğini doğru bir şekilde çıkar.

Kurallar:
1. Dil: Türkçe - Türkçe karakterleri doğru şekilde çıkar (ş, ğ, ü, ö, ç, ı)
2. Başlıkları, alt başlıkları, soruları ve cevapları koru
3. Formatı ve yapıyı mümkün olduğunca koru
4. Her sayfa için temiz, okunabilir metin döndür
5. Matematik formüllerini ve sembolleri metin olarak yaz

Yanıtı SADECE aşağıdaki JSON formatında ver, başka hiçbir şey ekleme:
{
  "pages": [
    { "pageNumber": 1, "content": "sayfa içeriği buraya..." },
    { "pageNumber": 2, "content": "sayfa içeriği buraya..." }
  ]
}

Eğer tek sayfa varsa, tek elemanlı dizi döndür.`

// LessonPrompt builds the generation prompt for a gamified lesson from
// extracted document text.
func LessonPrompt(content string, gradeLevel int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a gamified lesson for a Grade %d student from the following material.\n\n", gradeLevel)
	b.WriteString("Material:\n")
	b.WriteString(content)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("1. Story Mode: 5-7 scenes.\n")
	b.WriteString("2. Flashcards: 5 terms.\n")
	b.WriteString("3. Quiz: 5 multiple choice questions, 4 options each.\n")
	b.WriteString("4. All narrative, definitions, questions and the summary must be in Turkish.\n\n")
	b.WriteString(`Return strictly JSON:
{
  "scenes": [{ "order": 1, "narrative": "...", "visualPrompt": "...", "educationalGoal": "..." }],
  "flashcards": [{ "term": "...", "definition": "...", "example": "..." }],
  "quiz": [{ "question": "...", "options": ["A","B","C","D"], "correctAnswerIndex": 0, "explanation": "..." }],
  "summary": "..."
}`)
	return b.String()
}
