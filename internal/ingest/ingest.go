// Package ingest turns outfit images into catalog records: the image is analyzed,
// the result normalized into an OutfitRecord, stored, and added to the attribute index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/recordid"
)

// DefaultMaxImageBytes caps the size of an image read from a file or URL.
const DefaultMaxImageBytes = 20 << 20

// DefaultExtensions are the image extensions ingested from directories.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".heic"}

var (
	ErrNoSource      = errors.New("image source is required")
	ErrNotImage      = errors.New("content is not an image")
	ErrImageTooLarge = errors.New("image too large")
	// ErrLocalSource is returned when an image would be read from the local disk
	// without Input.AllowLocal.
	ErrLocalSource = errors.New("image source must be an http(s) URL")
)

// Catalog is the record store the ingester writes to.
type Catalog interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*models.OutfitRecord, error)
	Put(ctx context.Context, rec *models.OutfitRecord) (string, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// RecordIndex is the attribute index kept in step with the catalog.
type RecordIndex interface {
	AddRecord(ctx context.Context, rec *models.OutfitRecord) error
	Current(ctx context.Context, rec *models.OutfitRecord) (bool, error)
	RemoveRecord(ctx context.Context, id string) error
}

// Input describes one image to ingest. Source is the image URL or file name and
// determines the record id. When Image is empty the image is read from Source, which
// must then be an http(s) URL unless AllowLocal is set.
type Input struct {
	Source   string `json:"source"`
	Image    []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
	Hint     string `json:"hint,omitempty"`
	// Force re-analyzes an image whose record already exists.
	Force bool `json:"force,omitempty"`
	// AllowLocal permits reading Source from the local filesystem. Only trusted
	// callers (the CLI and the directory watcher) set it.
	AllowLocal bool `json:"-"`
}

// Outcome reports what IngestImage did.
type Outcome struct {
	Record *models.OutfitRecord `json:"record"`
	URL    string               `json:"url,omitempty"`
	// Created is false when an existing record was replaced.
	Created bool `json:"created"`
	// Skipped is set when the record already existed and Force was not given.
	Skipped bool `json:"skipped"`
}

// Ingester analyzes images into records.
type Ingester struct {
	catalog  Catalog
	index    RecordIndex
	vision   llm.VisionAnalyzer
	client   *http.Client
	maxBytes int64
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithHTTPClient sets the client used to fetch image URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(in *Ingester) { in.client = c }
}

// WithMaxImageBytes sets the image size limit.
func WithMaxImageBytes(n int64) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.maxBytes = n
		}
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) { in.now = now }
}

// New creates an Ingester. index may be nil, in which case records are only stored
// and the next rebuild picks them up.
func New(catalog Catalog, index RecordIndex, vision llm.VisionAnalyzer, opts ...Option) *Ingester {
	in := &Ingester{
		catalog:  catalog,
		index:    index,
		vision:   vision,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxImageBytes,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestImage analyzes one image and stores the resulting record. The record id is
// derived from the source, so the same image always targets the same record.
func (in *Ingester) IngestImage(ctx context.Context, input Input) (*Outcome, error) {
	source := strings.TrimSpace(input.Source)
	if source == "" {
		return nil, ErrNoSource
	}
	if len(input.Image) == 0 && !input.AllowLocal && !IsURL(source) {
		return nil, fmt.Errorf("%w: %s", ErrLocalSource, source)
	}
	id := recordid.FromSource(source)

	exists, err := in.catalog.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	var previous *models.OutfitRecord
	if exists {
		previous, err = in.catalog.Get(ctx, id)
		if err != nil && !errors.Is(err, models.ErrMalformedRecord) {
			return nil, err
		}
		if previous != nil && !input.Force {
			in.ensureIndexed(ctx, previous)
			in.logger.Debug("ingest skipping existing record", zap.String("record_id", id), zap.String("source", source))
			return &Outcome{Record: previous, Skipped: true}, nil
		}
	}

	image := input.Image
	if len(image) == 0 {
		image, err = in.readImage(ctx, source)
		if err != nil {
			return nil, err
		}
	}
	if int64(len(image)) > in.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(image))
	}
	mimeType := input.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	start := in.now()
	data, err := in.vision.Analyze(ctx, image, mimeType, input.Hint)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", source, err)
	}
	analysis, err := models.ParseAnalysis(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis of %s: %w", source, err)
	}

	rec := models.NewRecord(id, source, analysis, in.now())
	if previous != nil {
		rec.CreatedAt = previous.CreatedAt
	}
	blobURL, err := in.catalog.Put(ctx, rec)
	if err != nil {
		return nil, err
	}
	in.indexRecord(ctx, rec)

	in.logger.Info("outfit ingested",
		zap.String("record_id", id),
		zap.String("source", source),
		zap.Bool("replaced", previous != nil),
		zap.Int("garments", rec.PopulatedSlots()),
		zap.Strings("situation_tags", rec.SituationTags),
		zap.Duration("elapsed", in.now().Sub(start)))
	return &Outcome{Record: rec, URL: blobURL, Created: previous == nil}, nil
}

// indexRecord adds rec to the index. Failures leave the record for the next rebuild.
func (in *Ingester) indexRecord(ctx context.Context, rec *models.OutfitRecord) {
	if in.index == nil {
		return
	}
	if err := in.index.AddRecord(ctx, rec); err != nil {
		in.logger.Warn("failed to index record", zap.String("record_id", rec.ID), zap.Error(err))
	}
}

// ensureIndexed re-adds rec only when the index holds no entry for its UpdatedAt.
func (in *Ingester) ensureIndexed(ctx context.Context, rec *models.OutfitRecord) {
	if in.index == nil {
		return
	}
	current, err := in.index.Current(ctx, rec)
	if err != nil {
		in.logger.Warn("failed to check index entry", zap.String("record_id", rec.ID), zap.Error(err))
		return
	}
	if !current {
		in.indexRecord(ctx, rec)
	}
}

// Remove deletes the record and its index entries. It reports whether the record existed.
func (in *Ingester) Remove(ctx context.Context, id string) (bool, error) {
	existed, err := in.catalog.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if in.index != nil {
		if err := in.index.RemoveRecord(ctx, id); err != nil {
			in.logger.Warn("failed to unindex record", zap.String("record_id", id), zap.Error(err))
		}
	}
	in.logger.Debug("record removed", zap.String("record_id", id), zap.Bool("existed", existed))
	return existed, nil
}

// RemoveSource deletes the record derived from an image source.
func (in *Ingester) RemoveSource(ctx context.Context, source string) (bool, error) {
	return in.Remove(ctx, recordid.FromSource(source))
}

func (in *Ingester) readImage(ctx context.Context, source string) ([]byte, error) {
	if IsURL(source) {
		return in.fetch(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return in.readLimited(f)
}

func (in *Ingester) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status code %d", source, resp.StatusCode)
	}
	return in.readLimited(resp.Body)
}

func (in *Ingester) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > in.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, in.maxBytes)
	}
	return data, nil
}

// IsURL reports whether source is an absolute http or https URL.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IngestFile ingests an image file. If allowedExts is non-empty the file's extension
// must be in the list (case-insensitive).
func (in *Ingester) IngestFile(ctx context.Context, path string, allowedExts []string, force bool) (*Outcome, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if len(allowedExts) > 0 && !ExtensionAllowed(filepath.Ext(absPath), allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	return in.IngestImage(ctx, Input{Source: absPath, Force: force, AllowLocal: true})
}

// IngestDirectory walks dir recursively and ingests every image whose extension is in
// allowedExts (DefaultExtensions when empty). It returns the number of new or replaced
// records. Failures on single files are logged and do not stop the walk.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string, allowedExts []string, force bool) (int, error) {
	if len(allowedExts) == 0 {
		allowedExts = DefaultExtensions
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	n := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !ExtensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		out, err := in.IngestFile(ctx, path, allowedExts, force)
		if err != nil {
			in.logger.Warn("failed to ingest image", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !out.Skipped {
			n++
		}
		return nil
	})
	return n, err
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and leading dots.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
