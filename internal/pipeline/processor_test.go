package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/repository"
)

type harness struct {
	docs    *fakeDocs
	pages   *fakePages
	lessons *fakeLessons
	store   *fakeStore
	gen     *fakeGen
	proc    *Processor
}

func newHarness(doc *repository.Document) *harness {
	h := &harness{
		docs:    newFakeDocs(doc),
		pages:   newFakePages(),
		lessons: newFakeLessons(),
		store:   newFakeStore(),
		gen:     &fakeGen{textResponse: "```json\n" + validLessonJSON() + "\n```"},
	}
	h.proc = NewProcessor(h.docs, h.pages, h.lessons, h.store, h.gen, fakeHEICRunner{}, "magick", nil)
	return h
}

func textDoc(status constants.DocumentStatus) *repository.Document {
	return &repository.Document{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		GradeLevel:   3,
		FileCategory: constants.CategoryText,
		FileFormat:   "txt",
		StorageKey:   "uploads/owner/1_a.txt",
		Status:       status,
	}
}

func TestRunTextDocumentToReady(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	h := newHarness(doc)
	h.store.objects[doc.StorageKey] = []byte("Güneş Sistemi sekiz gezegenden oluşur.")

	out, err := h.proc.Run(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Method != constants.MethodTextExtraction || out.PageCount != 1 {
		t.Errorf("outcome = %+v", out)
	}
	if got := h.docs.status(); got != constants.StatusReady {
		t.Fatalf("status = %s, want ready", got)
	}
	if h.docs.doc.LessonSummary != "Ders özeti." {
		t.Errorf("summary = %q", h.docs.doc.LessonSummary)
	}
	if got := h.docs.meta(constants.MetaMethod); got != constants.MethodTextExtraction {
		t.Errorf("metadata method = %v", got)
	}
	if got := h.docs.meta(constants.MetaWordCount); got != 5 {
		t.Errorf("word_count = %v, want 5", got)
	}
	if c := h.lessons.content[doc.ID]; len(c.Scenes) != 5 || len(c.Quiz) != 5 {
		t.Errorf("lesson content = %d scenes, %d quiz", len(c.Scenes), len(c.Quiz))
	}
	// text category goes through processing, never ocr_processing
	for _, tr := range h.docs.transitions {
		if strings.Contains(tr, string(constants.StatusOCRProcessing)) {
			t.Errorf("unexpected transition %s", tr)
		}
	}
	if h.gen.visionCalls != 0 {
		t.Errorf("vision called %d times for a text document", h.gen.visionCalls)
	}
}

func TestRunScanPDFFallsBackToVision(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	doc.FileCategory = constants.CategoryPDF
	doc.FileFormat = "pdf"
	h := newHarness(doc)
	// Bytes with no readable text layer force the OCR path.
	h.store.objects[doc.StorageKey] = []byte("%PDF-1.4 scan only")
	h.gen.visionResponse = `{"pages":[{"pageNumber":1,"content":"Birinci sayfa"},{"pageNumber":2,"content":"İkinci sayfa"}]}`

	out, err := h.proc.Run(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Method != constants.MethodGeminiVision {
		t.Errorf("method = %q, want %q", out.Method, constants.MethodGeminiVision)
	}
	if out.PageCount != 2 {
		t.Errorf("page count = %d, want 2", out.PageCount)
	}
	if h.gen.lastMime != "application/pdf" {
		t.Errorf("vision mime = %q", h.gen.lastMime)
	}
	var sawEscalation bool
	for _, tr := range h.docs.transitions {
		if tr == "processing->ocr_processing" {
			sawEscalation = true
		}
	}
	if !sawEscalation {
		t.Errorf("missing processing->ocr_processing transition: %v", h.docs.transitions)
	}
	if got := h.docs.status(); got != constants.StatusReady {
		t.Errorf("status = %s, want ready", got)
	}
}

func TestRunHEICImage(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	doc.FileCategory = constants.CategoryImage
	doc.FileFormat = "heic"
	h := newHarness(doc)
	h.store.objects[doc.StorageKey] = []byte{0x00, 0x00, 0x00, 0x18}
	h.gen.visionResponse = `{"pages":[{"pageNumber":1,"content":"Defter sayfası"}]}`

	out, err := h.proc.Run(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Method != constants.MethodGeminiVision {
		t.Errorf("method = %q", out.Method)
	}
	if h.gen.lastMime != "image/jpeg" {
		t.Errorf("vision mime = %q, want image/jpeg after normalization", h.gen.lastMime)
	}
	// Converted intermediate persisted under converted/{owner}/
	if keys := h.store.keysWithPrefix("converted/" + doc.OwnerID.String()); len(keys) != 1 {
		t.Errorf("converted keys = %v", keys)
	}
	if w := h.docs.meta(constants.MetaImageWidth); w != 8 {
		t.Errorf("image_width = %v, want 8", w)
	}
	if h.docs.meta(constants.MetaConvertedKey) == nil {
		t.Error("converted_key not recorded")
	}
}

func TestRunJPEGImageSkipsConversion(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	doc.FileCategory = constants.CategoryImage
	doc.FileFormat = "jpg"
	h := newHarness(doc)
	h.store.objects[doc.StorageKey] = []byte{0xff, 0xd8, 0xff}
	h.gen.visionResponse = `{"pages":[{"pageNumber":1,"content":"metin"}]}`

	if _, err := h.proc.Run(context.Background(), doc.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if keys := h.store.keysWithPrefix("converted/"); len(keys) != 0 {
		t.Errorf("unexpected converted objects: %v", keys)
	}
	// Image uploads start in ocr_processing directly.
	if h.docs.transitions[0] != "pending->ocr_processing" {
		t.Errorf("first transition = %s", h.docs.transitions[0])
	}
}

func TestRunConflictLeavesDocumentAlone(t *testing.T) {
	doc := textDoc(constants.StatusProcessing)
	h := newHarness(doc)

	_, err := h.proc.Run(context.Background(), doc.ID)
	if common.KindOf(err) != common.KindConflict {
		t.Fatalf("kind = %v, want conflict", common.KindOf(err))
	}
	if got := h.docs.status(); got != constants.StatusProcessing {
		t.Errorf("status = %s, want processing untouched", got)
	}
	if h.docs.doc.ErrorMessage != "" {
		t.Errorf("conflict wrote error message %q", h.docs.doc.ErrorMessage)
	}
}

func TestRunStorageFailureRecordsTurkishError(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	h := newHarness(doc)
	// store deliberately empty

	_, err := h.proc.Run(context.Background(), doc.ID)
	if common.KindOf(err) != common.KindStorage {
		t.Fatalf("kind = %v, want storage", common.KindOf(err))
	}
	if got := h.docs.status(); got != constants.StatusError {
		t.Errorf("status = %s, want error", got)
	}
	if msg := h.docs.doc.ErrorMessage; !strings.Contains(msg, "Dosyaya erişilemedi") {
		t.Errorf("error message = %q", msg)
	}
	if got := h.docs.meta(constants.MetaFailedMethod); got != string(common.KindStorage) {
		t.Errorf("failed_method = %v", got)
	}
}

func TestRunEmptyTextDocument(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	h := newHarness(doc)
	h.store.objects[doc.StorageKey] = []byte("   \n  ")

	_, err := h.proc.Run(context.Background(), doc.ID)
	if common.KindOf(err) != common.KindNoContent {
		t.Fatalf("kind = %v, want no content", common.KindOf(err))
	}
	if got := h.docs.status(); got != constants.StatusError {
		t.Errorf("status = %s, want error", got)
	}
}

func TestResolveKeyFallsBackToPublicURL(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	doc.StorageKey = ""
	doc.PublicURL = "https://files.example.com/uploads/legacy/9_b.txt"
	h := newHarness(doc)
	h.store.objects["uploads/legacy/9_b.txt"] = []byte("eski kayıt içeriği")

	if _, err := h.proc.Run(context.Background(), doc.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.docs.status(); got != constants.StatusReady {
		t.Errorf("status = %s, want ready", got)
	}
}

func TestResolveKeyMissingEverywhere(t *testing.T) {
	doc := textDoc(constants.StatusPending)
	doc.StorageKey = ""
	doc.PublicURL = "https://files.example.com/other/path.txt"
	h := newHarness(doc)

	_, err := h.proc.Run(context.Background(), doc.ID)
	if err == nil {
		t.Fatal("want error for unresolvable key")
	}
	if msg := common.UserMessage(err); !strings.Contains(msg, "Dosya yolu bulunamadı") {
		t.Errorf("user message = %q", msg)
	}
}
