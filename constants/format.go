package constants

import (
	"sort"
	"strings"
)

// FileCategory is the processing route chosen for an uploaded file.
type FileCategory string

const (
	CategoryPDF   FileCategory = "pdf"
	CategoryText  FileCategory = "text"
	CategoryImage FileCategory = "image"
)

// Extension allow-lists per category. The declared MIME type is untrusted;
// the extension is the canonical routing signal.
var (
	textExtensions = map[string]struct{}{
		"txt":  {},
		"md":   {},
		"docx": {},
		"doc":  {},
		"rtf":  {},
		"odt":  {},
	}

	imageExtensions = map[string]struct{}{
		"jpg":  {},
		"jpeg": {},
		"png":  {},
		"webp": {},
		"heic": {},
		"heif": {},
		"tiff": {},
		"tif":  {},
	}
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Classify maps a file extension to its processing category.
// Unrecognized extensions return ok=false; callers must fail closed.
func Classify(ext string) (FileCategory, bool) {
	e := NormalizeExt(ext)
	switch {
	case e == "pdf":
		return CategoryPDF, true
	default:
		if _, ok := textExtensions[e]; ok {
			return CategoryText, true
		}
		if _, ok := imageExtensions[e]; ok {
			return CategoryImage, true
		}
		return "", false
	}
}

// mimeExtensions resolves declared content types to a canonical extension
// for uploads that carry no usable filename.
var mimeExtensions = map[string]string{
	"application/pdf":    "pdf",
	"text/plain":         "txt",
	"text/markdown":      "md",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/rtf": "rtf",
	"application/vnd.oasis.opendocument.text": "odt",
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
	"image/tiff": "tiff",
}

// ClassifyMIME maps a declared content type to a category and canonical
// extension. Media-type parameters ("; charset=utf-8") are ignored.
// The extension stays the primary routing signal; this is the fallback
// for clients that upload without a filename.
func ClassifyMIME(contentType string) (FileCategory, string, bool) {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	ext, ok := mimeExtensions[mt]
	if !ok {
		return "", "", false
	}
	category, _ := Classify(ext)
	return category, ext, true
}

// IsTextDocument reports whether ext routes through the text-document extractor.
func IsTextDocument(ext string) bool {
	_, ok := textExtensions[NormalizeExt(ext)]
	return ok
}

// IsHEICExt reports whether ext is a phone-camera (HEIC/HEIF) format.
func IsHEICExt(ext string) bool {
	e := NormalizeExt(ext)
	return e == "heic" || e == "heif"
}

// AcceptedExtensions returns the full allow-list, sorted, for user-facing
// unsupported-format messages.
func AcceptedExtensions() []string {
	out := make([]string, 0, len(textExtensions)+len(imageExtensions)+1)
	out = append(out, "pdf")
	for e := range textExtensions {
		out = append(out, e)
	}
	for e := range imageExtensions {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
