// Package server provides the HTTP API for outfit matching and catalog management.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/config"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/tasks"
)

// Matcher answers match requests.
type Matcher interface {
	Match(ctx context.Context, q models.MatchQuery) (*models.MatchResult, error)
}

// Composer turns a match result into a persona reply.
type Composer interface {
	Compose(ctx context.Context, result *models.MatchResult, request string) string
}

// Records reads and edits stored records.
type Records interface {
	Get(ctx context.Context, id string) (*models.OutfitRecord, error)
	UpdateTags(ctx context.Context, id string, tags []string) (*models.OutfitRecord, error)
	Count(ctx context.Context) (int, error)
}

// Ingester adds and removes records.
type Ingester interface {
	IngestImage(ctx context.Context, input ingest.Input) (*ingest.Outcome, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// Index is the attribute index.
type Index interface {
	AddRecord(ctx context.Context, rec *models.OutfitRecord) error
	RebuildAll(ctx context.Context, force bool) (index.RebuildStats, error)
	Stats(ctx context.Context) (map[index.Kind]int, int, error)
}

// TaskQueue hands work to the background worker.
type TaskQueue interface {
	EnqueueAnalyze(ctx context.Context, p tasks.AnalyzeOutfitPayload) (string, error)
	EnqueueRebuild(ctx context.Context, force bool) (string, error)
}

// WatchService reports the watched inbox directories.
type WatchService interface {
	Directories() []string
}

// DiskUsager reports the on-disk size of the record store.
type DiskUsager interface {
	DiskUsage() (int64, error)
}

// Deps are the components the server routes to. Queue, Watch and Disk are optional.
type Deps struct {
	Matcher  Matcher
	Composer Composer
	Records  Records
	Ingester Ingester
	Index    Index
	Queue    TaskQueue
	Watch    WatchService
	Disk     DiskUsager
}

// Server is the HTTP server for the outfitter API.
type Server struct {
	deps     Deps
	config   *config.ServerConfig
	compose  bool
	logger   *zap.Logger
	server   *http.Server
	started  time.Time
	storeCfg string
}

// Option configures a Server.
type Option func(*Server)

// WithComposeDefault sets whether match replies are composed when the request does not say.
func WithComposeDefault(compose bool) Option {
	return func(s *Server) { s.compose = compose }
}

// WithStorageBackend names the storage backend in status output.
func WithStorageBackend(name string) Option {
	return func(s *Server) { s.storeCfg = name }
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: deps, config: cfg, logger: logger, started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/match", s.handleMatch)
		r.Post("/records", s.handleIngest)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)
		r.Put("/records/{id}/tags", s.handleUpdateTags)
		r.Post("/index/rebuild", s.handleRebuild)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
