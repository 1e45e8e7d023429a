package constants

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		ext      string
		category FileCategory
		ok       bool
	}{
		{"pdf", CategoryPDF, true},
		{".PDF", CategoryPDF, true},
		{"txt", CategoryText, true},
		{"md", CategoryText, true},
		{"docx", CategoryText, true},
		{"doc", CategoryText, true},
		{"rtf", CategoryText, true},
		{"odt", CategoryText, true},
		{"jpg", CategoryImage, true},
		{"JPEG", CategoryImage, true},
		{"png", CategoryImage, true},
		{"webp", CategoryImage, true},
		{"heic", CategoryImage, true},
		{"heif", CategoryImage, true},
		{"tiff", CategoryImage, true},
		{"tif", CategoryImage, true},
		// fail closed: anything unlisted is rejected
		{"exe", "", false},
		{"zip", "", false},
		{"html", "", false},
		{"", "", false},
		{"pdf.exe", "", false},
	}
	for _, tt := range tests {
		category, ok := Classify(tt.ext)
		if ok != tt.ok || category != tt.category {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", tt.ext, category, ok, tt.category, tt.ok)
		}
	}
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{".PDF", "pdf"},
		{"Heic", "heic"},
		{" txt ", "txt"},
		{"md", "md"},
	}
	for _, tt := range tests {
		if got := NormalizeExt(tt.in); got != tt.want {
			t.Errorf("NormalizeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAcceptedExtensionsCoversEveryCategory(t *testing.T) {
	accepted := AcceptedExtensions()
	if len(accepted) != 15 {
		t.Fatalf("accepted = %v (%d entries)", accepted, len(accepted))
	}
	for _, ext := range accepted {
		if _, ok := Classify(ext); !ok {
			t.Errorf("accepted extension %q does not classify", ext)
		}
	}
	for i := 1; i < len(accepted); i++ {
		if accepted[i-1] >= accepted[i] {
			t.Fatalf("accepted list not sorted: %v", accepted)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	inFlight := []DocumentStatus{StatusProcessing, StatusOCRProcessing, StatusAnalyzing, StatusGeneratingScenes}
	for _, s := range inFlight {
		if !s.InFlight() {
			t.Errorf("%s should be in flight", s)
		}
	}
	terminal := []DocumentStatus{StatusPending, StatusReady, StatusError, StatusFailed}
	for _, s := range terminal {
		if s.InFlight() {
			t.Errorf("%s should not be in flight", s)
		}
	}
	if !StatusError.IsFailure() || !StatusFailed.IsFailure() || StatusReady.IsFailure() {
		t.Error("failure predicate wrong")
	}
}

func TestClassifyMIME(t *testing.T) {
	tests := []struct {
		contentType string
		category    FileCategory
		ext         string
		ok          bool
	}{
		{"application/pdf", CategoryPDF, "pdf", true},
		{"text/plain; charset=utf-8", CategoryText, "txt", true},
		{"IMAGE/HEIC", CategoryImage, "heic", true},
		{"image/jpeg", CategoryImage, "jpg", true},
		{"application/octet-stream", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		category, ext, ok := ClassifyMIME(tt.contentType)
		if category != tt.category || ext != tt.ext || ok != tt.ok {
			t.Errorf("ClassifyMIME(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.contentType, category, ext, ok, tt.category, tt.ext, tt.ok)
		}
	}
}
