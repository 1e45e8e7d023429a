// Package export produces XLSX processing reports for an owner's documents.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/repository"
)

// Service is a tiny façade over the document repository that produces XLSX
// bytes for per-owner reports.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// OwnerReportXLSX returns an XLSX workbook listing every document the owner
// has uploaded with its processing outcome.
func (s *Service) OwnerReportXLSX(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Uploaded At",
		"Title",
		"File Name",
		"Category",
		"Format",
		"Status",
		"Pages",
		"Extraction Method",
		"Retries",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.CreatedAt.UTC().Format("2006-01-02 15:04"))
		write(2, d.Title)
		write(3, d.OriginalFileName)
		write(4, string(d.FileCategory))
		write(5, d.FileFormat)
		write(6, string(d.Status))
		write(7, d.PageCount)
		write(8, metaString(d, constants.MetaMethod))
		write(9, metaInt(d, constants.MetaRetryCount))
		write(10, truncate(d.ErrorMessage, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "C", 32)
	_ = f.SetColWidth(sheet, "D", "F", 14)
	_ = f.SetColWidth(sheet, "H", "H", 22)
	_ = f.SetColWidth(sheet, "J", "J", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", ownerID.String(),
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func metaString(d *repository.Document, key string) string {
	if v, ok := d.ProcessingMetadata[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(d *repository.Document, key string) int {
	switch v := d.ProcessingMetadata[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
