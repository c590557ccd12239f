// Package tasks defines the background jobs run by the worker: image analysis and
// index rebuilds, queued through asynq on Redis.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/ingest"
)

// Task types.
const (
	TypeAnalyzeOutfit = "outfit:analyze"
	TypeRebuildIndex  = "index:rebuild"
)

// QueueDefault is the queue every task is enqueued on.
const QueueDefault = "outfitter"

// AnalyzeOutfitPayload asks the worker to ingest one image.
type AnalyzeOutfitPayload struct {
	Source   string `json:"source"`
	MIMEType string `json:"mime_type,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Force    bool   `json:"force,omitempty"`
	// Local marks a filesystem path enqueued by the directory watcher.
	Local bool `json:"local,omitempty"`
}

// RebuildIndexPayload asks the worker to rebuild the attribute index.
type RebuildIndexPayload struct {
	Force bool `json:"force"`
}

// NewAnalyzeOutfitTask returns a task that ingests the image at source.
func NewAnalyzeOutfitTask(p AnalyzeOutfitPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAnalyzeOutfit, payload, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// NewRebuildIndexTask returns a task that rebuilds the index. Only one rebuild is
// queued at a time.
func NewRebuildIndexTask(force bool) (*asynq.Task, error) {
	payload, err := json.Marshal(RebuildIndexPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRebuildIndex, payload, asynq.MaxRetry(1), asynq.Unique(time.Minute)), nil
}

// Ingester is the part of ingest.Ingester the worker needs.
type Ingester interface {
	IngestImage(ctx context.Context, input ingest.Input) (*ingest.Outcome, error)
}

// Rebuilder is the part of index.Index the worker needs.
type Rebuilder interface {
	RebuildAll(ctx context.Context, force bool) (index.RebuildStats, error)
}

// Handlers processes tasks.
type Handlers struct {
	ingester  Ingester
	rebuilder Rebuilder
	logger    *zap.Logger
}

// NewHandlers creates task handlers.
func NewHandlers(ingester Ingester, rebuilder Rebuilder, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{ingester: ingester, rebuilder: rebuilder, logger: logger}
}

// HandleAnalyzeOutfit ingests the image named in the payload. Malformed payloads
// are not retried.
func (h *Handlers) HandleAnalyzeOutfit(ctx context.Context, t *asynq.Task) error {
	var p AnalyzeOutfitPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeAnalyzeOutfit, err, asynq.SkipRetry)
	}
	out, err := h.ingester.IngestImage(ctx, ingest.Input{
		Source:     p.Source,
		MIMEType:   p.MIMEType,
		Hint:       p.Hint,
		Force:      p.Force,
		AllowLocal: p.Local,
	})
	if err != nil {
		h.logger.Error("analyze task failed", zap.String("source", p.Source), zap.Error(err))
		return err
	}
	h.logger.Info("analyze task done",
		zap.String("source", p.Source),
		zap.String("record_id", out.Record.ID),
		zap.Bool("skipped", out.Skipped))
	return nil
}

// HandleRebuildIndex rebuilds the attribute index.
func (h *Handlers) HandleRebuildIndex(ctx context.Context, t *asynq.Task) error {
	var p RebuildIndexPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeRebuildIndex, err, asynq.SkipRetry)
	}
	stats, err := h.rebuilder.RebuildAll(ctx, p.Force)
	if err != nil {
		return err
	}
	h.logger.Info("rebuild task done", zap.Bool("force", p.Force), zap.Any("stats", stats))
	return nil
}

// NewServeMux routes every task type to its handler.
func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAnalyzeOutfit, h.HandleAnalyzeOutfit)
	mux.HandleFunc(TypeRebuildIndex, h.HandleRebuildIndex)
	return mux
}
