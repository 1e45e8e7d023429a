// Package extract turns stored document bytes into ordered page text.
// Three strategies exist: the native PDF text layer, structural text-document
// conversion, and vision OCR. The pipeline picks per file category and falls
// back from the text layer to OCR when a PDF is scan-only.
package extract

import (
	"strings"

	"github.com/derslik/derslik/internal/repository"
)

// Result is the outcome of one extraction attempt.
type Result struct {
	Pages     []repository.PageContent
	Method    string
	WordCount int
}

// CountWords counts whitespace-separated tokens across pages. Stored in
// processing metadata for reporting, not used for any threshold.
func CountWords(pages []repository.PageContent) int {
	n := 0
	for _, p := range pages {
		n += len(strings.Fields(p.Content))
	}
	return n
}
