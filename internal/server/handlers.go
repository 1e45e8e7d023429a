package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/async"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/storage"
)

const ownerHeader = "X-Owner-ID"

// ownerID reads and validates the caller's owner ID header.
func ownerID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(ownerHeader)
	if raw == "" {
		return uuid.Nil, common.AuthorizationError()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.AuthorizationError()
	}
	return id, nil
}

// loadOwnedDocument fetches the document and enforces ownership. A foreign
// document is reported as forbidden, not as missing, matching the
// authorization taxonomy.
func (s *Server) loadOwnedDocument(c *gin.Context) (*repository.Document, bool) {
	owner, err := ownerID(c)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, common.E(common.KindNotFound, "Kurs bulunamadı.", err))
		return nil, false
	}
	doc, err := s.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	if doc.OwnerID != owner {
		abortWithError(c, common.AuthorizationError())
		return nil, false
	}
	return doc, true
}

type createDocumentResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Category  string    `json:"category"`
	Format    string    `json:"format"`
	PublicURL string    `json:"publicUrl"`
}

// createDocument accepts a multipart upload, stores the original bytes and
// queues extraction. Unknown extensions are rejected before anything is
// written.
func (s *Server) createDocument(c *gin.Context) {
	owner, err := ownerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Dosya bulunamadı. 'file' alanıyla bir dosya yükleyin.",
			"code":  string(common.KindUnsupportedFormat),
		})
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(fileHeader.Filename))
	category, ok := constants.Classify(ext)
	if !ok {
		// Some clients upload without a usable filename; the declared
		// content type is the only signal left.
		if cat, mimeExt, mimeOK := constants.ClassifyMIME(fileHeader.Header.Get("Content-Type")); mimeOK {
			category, ext = cat, mimeExt
		} else {
			abortWithError(c, common.UnsupportedFormatError(ext, constants.AcceptedExtensions()))
			return
		}
	}
	if limit := constants.MaxBytesFor(category); fileHeader.Size > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Dosya çok büyük. En fazla %dMB yükleyebilirsiniz.", limit>>20),
			"code":  "FILE_TOO_LARGE",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, common.StorageError(err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		abortWithError(c, common.StorageError(err))
		return
	}

	key := storage.UploadKey(owner, ext)
	if err := s.store.Put(c.Request.Context(), key, data, fileHeader.Header.Get("Content-Type")); err != nil {
		abortWithError(c, err)
		return
	}

	gradeLevel, _ := strconv.Atoi(c.PostForm("gradeLevel"))
	doc, err := s.docs.Create(c.Request.Context(), repository.NewDocument{
		OwnerID:          owner,
		Title:            c.PostForm("title"),
		GradeLevel:       gradeLevel,
		OriginalFileName: fileHeader.Filename,
		FileCategory:     category,
		FileFormat:       ext,
		StorageKey:       key,
		PublicURL:        s.store.PublicURL(key),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		DocumentID:  doc.ID,
		SubmittedAt: time.Now(),
		TraceID:     c.GetString("request_id"),
	}); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, createDocumentResponse{
		ID:        doc.ID,
		Status:    string(doc.Status),
		Category:  string(doc.FileCategory),
		Format:    doc.FileFormat,
		PublicURL: doc.PublicURL,
	})
}

type statusResponse struct {
	ID           uuid.UUID      `json:"id"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	PageCount    int            `json:"pageCount"`
	Summary      string         `json:"summary,omitempty"`
	Metadata     map[string]any `json:"processingMetadata"`
}

func (s *Server) documentStatus(c *gin.Context) {
	doc, ok := s.loadOwnedDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		ID:           doc.ID,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		PageCount:    doc.PageCount,
		Summary:      doc.LessonSummary,
		Metadata:     doc.ProcessingMetadata,
	})
}

type pageResponse struct {
	PageNumber int    `json:"pageNumber"`
	Content    string `json:"content"`
}

func (s *Server) documentPages(c *gin.Context) {
	doc, ok := s.loadOwnedDocument(c)
	if !ok {
		return
	}
	pages, err := s.pages.ListByDocument(c.Request.Context(), doc.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageResponse{PageNumber: p.PageNumber, Content: p.Content})
	}
	c.JSON(http.StatusOK, gin.H{"pages": out})
}

// startExtraction runs extraction synchronously so the caller learns the
// method and page count, then queues lesson generation. Documents already
// in flight are rejected up front; the processor's compare-and-swap closes
// the rest of the race window.
func (s *Server) startExtraction(c *gin.Context) {
	doc, ok := s.loadOwnedDocument(c)
	if !ok {
		return
	}
	if doc.Status.InFlight() {
		abortWithError(c, common.E(common.KindConflict, "Bu dosya zaten işleniyor.", nil))
		return
	}
	outcome, err := s.proc.StartExtraction(c.Request.Context(), doc.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		DocumentID:  doc.ID,
		LessonOnly:  true,
		SubmittedAt: time.Now(),
		TraceID:     c.GetString("request_id"),
	}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"method":    outcome.Method,
		"pageCount": outcome.PageCount,
	})
}

// retryExtraction queues a retry for a failed text document. The category
// check runs here too so unsupported retries fail fast with a 400 instead
// of a queued no-op.
func (s *Server) retryExtraction(c *gin.Context) {
	doc, ok := s.loadOwnedDocument(c)
	if !ok {
		return
	}
	if doc.FileCategory != constants.CategoryText {
		abortWithError(c, common.RetryUnsupportedError())
		return
	}
	if !doc.Status.IsFailure() {
		abortWithError(c, common.E(common.KindConflict, "Yalnızca başarısız dosyalar tekrar denenebilir.", nil))
		return
	}
	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		DocumentID:  doc.ID,
		Retry:       true,
		SubmittedAt: time.Now(),
		TraceID:     c.GetString("request_id"),
	}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": doc.ID, "status": string(doc.Status)})
}

// ownerReport streams the XLSX processing report. Owners can only export
// their own documents.
func (s *Server) ownerReport(c *gin.Context) {
	owner, err := ownerID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil || target != owner {
		abortWithError(c, common.AuthorizationError())
		return
	}

	data, err := s.exporter.OwnerReportXLSX(c.Request.Context(), owner)
	if err != nil {
		abortWithError(c, err)
		return
	}
	filename := fmt.Sprintf("documents-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
