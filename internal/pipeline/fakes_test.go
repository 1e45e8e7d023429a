package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/lesson"
	"github.com/derslik/derslik/internal/repository"
)

// fakeDocs is an in-memory DocumentRepository holding a single document.
type fakeDocs struct {
	mu          sync.Mutex
	doc         *repository.Document
	transitions []string
}

func newFakeDocs(doc *repository.Document) *fakeDocs {
	if doc.ProcessingMetadata == nil {
		doc.ProcessingMetadata = map[string]any{}
	}
	return &fakeDocs{doc: doc}
}

func (f *fakeDocs) Create(_ context.Context, _ repository.NewDocument) (*repository.Document, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil || f.doc.ID != id {
		return nil, common.E(common.KindNotFound, "Kurs bulunamadı.", nil)
	}
	cp := *f.doc
	cp.ProcessingMetadata = map[string]any{}
	for k, v := range f.doc.ProcessingMetadata {
		cp.ProcessingMetadata[k] = v
	}
	return &cp, nil
}

func (f *fakeDocs) TransitionStatus(_ context.Context, id uuid.UUID, from []constants.DocumentStatus, to constants.DocumentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil || f.doc.ID != id {
		return false, nil
	}
	for _, s := range from {
		if f.doc.Status == s {
			f.transitions = append(f.transitions, string(f.doc.Status)+"->"+string(to))
			f.doc.Status = to
			if to.InFlight() {
				f.doc.ErrorMessage = ""
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDocs) MarkFailure(_ context.Context, id uuid.UUID, status constants.DocumentStatus, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, string(f.doc.Status)+"->"+string(status))
	f.doc.Status = status
	f.doc.ErrorMessage = message
	return nil
}

func (f *fakeDocs) MarkAnalyzing(_ context.Context, id uuid.UUID, pageCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, string(f.doc.Status)+"->"+string(constants.StatusAnalyzing))
	f.doc.Status = constants.StatusAnalyzing
	f.doc.PageCount = pageCount
	f.doc.ErrorMessage = ""
	return nil
}

func (f *fakeDocs) MarkReady(_ context.Context, id uuid.UUID, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, string(f.doc.Status)+"->"+string(constants.StatusReady))
	f.doc.Status = constants.StatusReady
	f.doc.LessonSummary = summary
	return nil
}

func (f *fakeDocs) MergeMetadata(_ context.Context, id uuid.UUID, patch map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range patch {
		f.doc.ProcessingMetadata[k] = v
	}
	return nil
}

func (f *fakeDocs) IncrementRetryCount(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	if v, ok := f.doc.ProcessingMetadata[constants.MetaRetryCount].(int); ok {
		n = v
	}
	n++
	f.doc.ProcessingMetadata[constants.MetaRetryCount] = n
	return n, nil
}

func (f *fakeDocs) ListByOwner(_ context.Context, _ uuid.UUID) ([]*repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return nil, nil
	}
	return []*repository.Document{f.doc}, nil
}

func (f *fakeDocs) status() constants.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Status
}

func (f *fakeDocs) meta(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.ProcessingMetadata[key]
}

// fakePages is an in-memory PageRepository.
type fakePages struct {
	mu       sync.Mutex
	pages    map[uuid.UUID][]repository.PageContent
	replaces int
}

func newFakePages() *fakePages {
	return &fakePages{pages: map[uuid.UUID][]repository.PageContent{}}
}

func (f *fakePages) Replace(_ context.Context, documentID uuid.UUID, pages []repository.PageContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[documentID] = pages
	f.replaces++
	return nil
}

func (f *fakePages) ListByDocument(_ context.Context, documentID uuid.UUID) ([]repository.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Page
	for _, p := range f.pages[documentID] {
		out = append(out, repository.Page{
			ID:         uuid.New(),
			DocumentID: documentID,
			PageNumber: p.PageNumber,
			Content:    p.Content,
		})
	}
	return out, nil
}

func (f *fakePages) CountByDocument(_ context.Context, documentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages[documentID]), nil
}

// fakeLessons records replaced lesson content.
type fakeLessons struct {
	mu      sync.Mutex
	content map[uuid.UUID]lesson.Content
}

func newFakeLessons() *fakeLessons {
	return &fakeLessons{content: map[uuid.UUID]lesson.Content{}}
}

func (f *fakeLessons) Replace(_ context.Context, documentID uuid.UUID, c lesson.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[documentID] = c
	return nil
}

func (f *fakeLessons) ListScenes(_ context.Context, documentID uuid.UUID) ([]lesson.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[documentID].Scenes, nil
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, common.StorageError(fmt.Errorf("no such key: %s", key))
	}
	return data, nil
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://files.example.com/" + key
}

func (f *fakeStore) keysWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out
}

// fakeGen returns canned model responses and records what was asked.
type fakeGen struct {
	mu             sync.Mutex
	textResponse   string
	visionResponse string
	textErr        error
	visionErr      error

	visionCalls int
	lastMime    string
}

func (f *fakeGen) GenerateText(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.textResponse, f.textErr
}

func (f *fakeGen) GenerateVision(_ context.Context, _, mimeType string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visionCalls++
	f.lastMime = mimeType
	return f.visionResponse, f.visionErr
}

// fakeHEICRunner stands in for the external converter: it writes a valid
// PNG to the output path instead of shelling out.
type fakeHEICRunner struct{}

func (fakeHEICRunner) Run(_ context.Context, _ string, args ...string) error {
	out := args[len(args)-1]
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// validLessonJSON builds a model response that satisfies the lesson schema.
func validLessonJSON() string {
	scenes := make([]map[string]any, 5)
	for i := range scenes {
		scenes[i] = map[string]any{
			"order":           i + 1,
			"narrative":       fmt.Sprintf("Sahne %d", i+1),
			"visualPrompt":    "bir sınıf",
			"educationalGoal": "kavramı pekiştirmek",
		}
	}
	cards := make([]map[string]any, 5)
	for i := range cards {
		cards[i] = map[string]any{
			"term":       fmt.Sprintf("terim %d", i+1),
			"definition": "tanım",
			"example":    "örnek",
		}
	}
	quiz := make([]map[string]any, 5)
	for i := range quiz {
		quiz[i] = map[string]any{
			"question":           fmt.Sprintf("Soru %d?", i+1),
			"options":            []string{"A", "B", "C", "D"},
			"correctAnswerIndex": 1,
			"explanation":        "açıklama",
		}
	}
	b, _ := json.Marshal(map[string]any{
		"scenes":     scenes,
		"flashcards": cards,
		"quiz":       quiz,
		"summary":    "Ders özeti.",
	})
	return string(b)
}
