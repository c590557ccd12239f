package selection

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/kvstore"
)

// Recency window defaults.
const (
	DefaultRecencyMax = 30
	DefaultRecencyTTL = 6 * time.Hour
)

const recencyPrefix = "recent:"

// RecencyWindow keeps the most recently chosen record ids per session, newest first.
// A store failure reads as an empty window.
type RecencyWindow struct {
	kv     kvstore.Store
	maxLen int
	ttl    time.Duration
	logger *zap.Logger
}

// RecencyOption configures a RecencyWindow.
type RecencyOption func(*RecencyWindow)

// WithMaxLen sets how many ids a window keeps.
func WithMaxLen(n int) RecencyOption {
	return func(w *RecencyWindow) {
		if n > 0 {
			w.maxLen = n
		}
	}
}

// WithTTL sets how long an untouched window lives.
func WithTTL(d time.Duration) RecencyOption {
	return func(w *RecencyWindow) {
		if d > 0 {
			w.ttl = d
		}
	}
}

// WithRecencyLogger sets the logger.
func WithRecencyLogger(l *zap.Logger) RecencyOption {
	return func(w *RecencyWindow) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewRecencyWindow creates a RecencyWindow over kv.
func NewRecencyWindow(kv kvstore.Store, opts ...RecencyOption) *RecencyWindow {
	w := &RecencyWindow{kv: kv, maxLen: DefaultRecencyMax, ttl: DefaultRecencyTTL, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func recencyKey(session string) string {
	return recencyPrefix + session
}

// Recent returns up to n of the session's most recent ids, newest first. An empty
// session id has no history.
func (w *RecencyWindow) Recent(ctx context.Context, session string, n int) []string {
	if session == "" || n <= 0 {
		return nil
	}
	ids, err := w.kv.LRange(ctx, recencyKey(session), 0, int64(n-1))
	if err != nil {
		w.logger.Warn("recency window unavailable",
			zap.String("session_id", session), zap.Bool("degraded", true), zap.Error(err))
		return nil
	}
	return ids
}

// Push records id as the session's most recent choice.
func (w *RecencyWindow) Push(ctx context.Context, session, id string) {
	if session == "" || id == "" {
		return
	}
	if err := w.kv.PushRecent(ctx, recencyKey(session), id, w.maxLen, w.ttl); err != nil {
		w.logger.Warn("failed to update recency window",
			zap.String("session_id", session), zap.String("record_id", id), zap.Error(err))
	}
}
