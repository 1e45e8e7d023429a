package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/derslik/derslik/internal/repository"
)

// densityThreshold is the minimum mean characters per page for a PDF text
// layer to be trusted. Scan-only PDFs carry a near-empty layer; below the
// threshold the caller must fall back to vision OCR.
const densityThreshold = 50

// PDFTextLayer reads the native text layer of a PDF. It is best-effort:
// a missing or sparse layer returns (nil, nil) so the caller falls back to
// OCR instead of failing the document.
func PDFTextLayer(data []byte) (pages []repository.PageContent, err error) {
	// The pdf package panics on some malformed files; treat that the same
	// as a missing text layer.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, nil
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return nil, nil
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := strings.TrimSpace(renderPage(page))
		if content == "" {
			continue
		}
		pages = append(pages, repository.PageContent{PageNumber: i, Content: content})
	}

	if LowDensity(pages) {
		return nil, nil
	}
	return pages, nil
}

// renderPage joins positioned text runs, inserting a line break whenever
// the Y coordinate changes. PDFs store runs in visual order, not reading
// order with newlines, so the break points have to be reconstructed.
func renderPage(page pdf.Page) string {
	var b strings.Builder
	lastY := -1.0
	for _, t := range page.Content().Text {
		if lastY >= 0 && t.Y != lastY {
			b.WriteString("\n")
		}
		b.WriteString(t.S)
		lastY = t.Y
	}
	return b.String()
}

// LowDensity reports whether the extracted layer is too sparse to trust:
// no pages at all, or fewer than densityThreshold characters per page on
// average.
func LowDensity(pages []repository.PageContent) bool {
	if len(pages) == 0 {
		return true
	}
	total := 0
	for _, p := range pages {
		total += len(p.Content)
	}
	return total/len(pages) < densityThreshold
}

// PDFMimeType is the payload MIME type sent to the vision model for PDFs.
const PDFMimeType = "application/pdf"

// ImageMimeType maps a normalized image extension to its MIME type.
func ImageMimeType(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
