package extract

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/derslik/derslik/internal/ai"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/repository"
)

type visionResponse struct {
	Pages []struct {
		PageNumber int    `json:"pageNumber"`
		Content    string `json:"content"`
	} `json:"pages"`
}

// Vision transcribes a document image or scan-only PDF through the vision
// model. The response must be the strict pages envelope; anything else is
// unparseable rather than silently empty.
func Vision(ctx context.Context, gen ai.Generator, mimeType string, payload []byte) ([]repository.PageContent, error) {
	raw, err := gen.GenerateVision(ctx, ai.OCRPrompt, mimeType, payload)
	if err != nil {
		return nil, common.TextExtractionError(err)
	}

	var resp visionResponse
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &resp); err != nil {
		return nil, common.AIUnparseableError(err)
	}

	var pages []repository.PageContent
	for _, p := range resp.Pages {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			continue
		}
		pages = append(pages, repository.PageContent{PageNumber: p.PageNumber, Content: content})
	}
	if len(pages) == 0 {
		return nil, common.NoContentError()
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}
