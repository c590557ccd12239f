package watcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/tasks"
)

// Ingester is the part of ingest.Ingester the sinks use.
type Ingester interface {
	IngestFile(ctx context.Context, path string, allowedExts []string, force bool) (*ingest.Outcome, error)
	RemoveSource(ctx context.Context, source string) (bool, error)
}

// IngestSink analyzes images in-process.
type IngestSink struct {
	ingester Ingester
	logger   *zap.Logger
}

// NewIngestSink returns a Sink that ingests images directly.
func NewIngestSink(ingester Ingester, logger *zap.Logger) *IngestSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestSink{ingester: ingester, logger: logger}
}

func (s *IngestSink) Upsert(ctx context.Context, path string, force bool) {
	out, err := s.ingester.IngestFile(ctx, path, nil, force)
	if err != nil {
		s.logger.Warn("failed to ingest image", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("inbox image ingested", zap.String("path", path), zap.String("record_id", out.Record.ID), zap.Bool("skipped", out.Skipped))
}

func (s *IngestSink) Remove(ctx context.Context, path string) {
	removeSource(ctx, s.ingester, s.logger, path)
}

// QueueSink enqueues analysis tasks for a worker instead of analyzing in-process.
// Removals are applied directly.
type QueueSink struct {
	queue    *tasks.Queue
	ingester Ingester
	logger   *zap.Logger
}

// NewQueueSink returns a Sink backed by the task queue.
func NewQueueSink(queue *tasks.Queue, ingester Ingester, logger *zap.Logger) *QueueSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueSink{queue: queue, ingester: ingester, logger: logger}
}

func (s *QueueSink) Upsert(ctx context.Context, path string, force bool) {
	if _, err := s.queue.EnqueueAnalyze(ctx, tasks.AnalyzeOutfitPayload{Source: path, Force: force, Local: true}); err != nil {
		s.logger.Warn("failed to enqueue image", zap.String("path", path), zap.Error(err))
	}
}

func (s *QueueSink) Remove(ctx context.Context, path string) {
	removeSource(ctx, s.ingester, s.logger, path)
}

func removeSource(ctx context.Context, ingester Ingester, logger *zap.Logger, path string) {
	existed, err := ingester.RemoveSource(ctx, path)
	if err != nil {
		logger.Warn("failed to remove record", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("inbox image removed", zap.String("path", path), zap.Bool("existed", existed))
}
