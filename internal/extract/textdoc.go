package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/repository"
)

// TextDocument extracts plain text from a text-category document. Plain
// formats (txt, md) are read directly as UTF-8; office formats go through
// structural conversion. The result is always a single logical page.
func TextDocument(ext string, data []byte) ([]repository.PageContent, error) {
	ext = constants.NormalizeExt(ext)

	var content string
	switch ext {
	case "txt", "md":
		if !utf8.Valid(data) {
			return nil, common.TextExtractionError(nil)
		}
		content = string(data)
	case "docx", "doc", "rtf", "odt":
		res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension("file."+ext), true)
		if err != nil {
			return nil, common.TextExtractionError(err)
		}
		content = res.Body
	default:
		return nil, common.UnsupportedFormatError(ext, constants.AcceptedExtensions())
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NoContentError()
	}
	return []repository.PageContent{{PageNumber: 1, Content: content}}, nil
}
