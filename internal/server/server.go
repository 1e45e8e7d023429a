// Package server exposes the ingestion pipeline over HTTP. Callers identify
// themselves with the X-Owner-ID header; all document routes enforce
// ownership before touching the record.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/derslik/derslik/internal/async"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/export"
	"github.com/derslik/derslik/internal/pipeline"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/server/middleware"
	"github.com/derslik/derslik/internal/storage"
)

// Extractor runs the extraction stage synchronously for the extract
// endpoint; the lesson stage goes through the queue afterwards.
type Extractor interface {
	StartExtraction(ctx context.Context, documentID uuid.UUID) (pipeline.Outcome, error)
}

// Server holds the HTTP surface and its dependencies.
type Server struct {
	cfg      common.ServerConfig
	docs     repository.DocumentRepository
	pages    repository.PageRepository
	store    storage.ObjectStore
	queue    async.Queue
	proc     Extractor
	exporter *export.Service
	logger   *slog.Logger

	http *http.Server
}

func New(
	cfg common.ServerConfig,
	docs repository.DocumentRepository,
	pages repository.PageRepository,
	store storage.ObjectStore,
	queue async.Queue,
	proc Extractor,
	exporter *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		docs:     docs,
		pages:    pages,
		store:    store,
		queue:    queue,
		proc:     proc,
		exporter: exporter,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(s.logger), middleware.Recovery(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/documents", s.createDocument)
		v1.GET("/documents/:id/status", s.documentStatus)
		v1.GET("/documents/:id/pages", s.documentPages)
		v1.POST("/documents/:id/extract", s.startExtraction)
		v1.POST("/documents/:id/retry", s.retryExtraction)
		v1.GET("/owners/:id/report", s.ownerReport)
	}
	return r
}

// Start runs the HTTP server until ListenAndServe returns.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// abortWithError maps an application error to an HTTP response. The body
// carries the user-facing Turkish message and the stable error kind.
func abortWithError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindAuthorization:
		status = http.StatusForbidden
	case common.KindConflict:
		status = http.StatusConflict
	case common.KindUnsupportedFormat, common.KindRetryUnsupported:
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      common.UserMessage(err),
		"code":       string(kind),
		"request_id": middleware.GetRequestID(c),
	})
}
