// Package main is the Outfitter CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/catalog"
	"github.com/hyperjump/outfitter/internal/cli"
	"github.com/hyperjump/outfitter/internal/config"
	"github.com/hyperjump/outfitter/internal/index"
	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/kvstore"
	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/models"
	"github.com/hyperjump/outfitter/internal/ranking"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/selection"
	"github.com/hyperjump/outfitter/internal/server"
	"github.com/hyperjump/outfitter/internal/storage"
	"github.com/hyperjump/outfitter/internal/tasks"
	"github.com/hyperjump/outfitter/internal/watcher"
	"github.com/hyperjump/outfitter/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/outfitter/config.yaml"

// loadConfig loads config from path. When path is the default and a config.yaml
// exists in the current directory, that file is used instead.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "worker":
		runWorker()
	case "match":
		runMatch()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "rebuild":
		runRebuild()
	case "version", "--version", "-v":
		fmt.Printf("outfitter version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("kv", cfg.KV.Backend),
		zap.Bool("queue", cfg.Queue.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Bring the index in line with whatever the catalog gained while we were down.
	go func() {
		if _, err := components.Index.RebuildAll(ctx, false); err != nil {
			logger.Warn("startup index sync failed", zap.Error(err))
		}
	}()

	var sink watcher.Sink = watcher.NewIngestSink(components.Ingester, logger)
	if components.Queue != nil {
		sink = watcher.NewQueueSink(components.Queue, components.Ingester, logger)
	}
	watchSvc := watcher.New(watcher.Options{
		Directories: cfg.Watch.Directories,
		Extensions:  cfg.Watch.Extensions,
		Recursive:   cfg.Watch.RecursiveOrDefault(),
	}, sink, watcher.WithLogger(logger))
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExisting()

	deps := server.Deps{
		Matcher:  components.Engine,
		Composer: components.Composer,
		Records:  components.Catalog,
		Ingester: components.Ingester,
		Index:    components.Index,
		Watch:    watchSvc,
	}
	if components.Queue != nil {
		deps.Queue = components.Queue
	}
	if sqlite, ok := components.Blobs.(*storage.SQLiteStore); ok {
		deps.Disk = sqlite
	}
	srv := server.NewServer(deps, &cfg.Server, logger,
		server.WithComposeDefault(cfg.Matching.Compose),
		server.WithStorageBackend(cfg.Storage.Backend),
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	watchSvc.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runWorker() {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	concurrency := fs.Int("concurrency", 0, "number of concurrent task handlers (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	opts := workerOptions(cfg)
	if *concurrency > 0 {
		opts.Concurrency = *concurrency
	}
	srv := tasks.NewServer(opts, logger)
	mux := tasks.NewServeMux(tasks.NewHandlers(components.Ingester, components.Index, logger))

	logger.Info("worker starting",
		zap.String("redis_addr", opts.RedisAddr),
		zap.Int("concurrency", opts.Concurrency),
	)
	// Run blocks until SIGTERM or SIGINT.
	if err := srv.Run(mux); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}

func workerOptions(cfg *config.Config) tasks.WorkerOptions {
	return tasks.WorkerOptions{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.KV.Password,
		RedisDB:       cfg.KV.DB,
		Concurrency:   cfg.Queue.Concurrency,
	}
}

func printMatchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: outfitter match [flags] <request>\n\n")
	fmt.Fprintf(fs.Output(), "The request is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  outfitter match navy blazer for a business meeting
  outfitter match --role color_expert "something for a first date"
  outfitter match --session alice --explain --output json linen shirt
`)
}

func runMatch() {
	args := cli.ReorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL; empty matches directly against storage")
	role := fs.String("role", "", "expert role: style_analyst, trend_expert, color_expert, fitting_coordinator")
	session := fs.String("session", "", "session id for recency tracking")
	outputFormat := fs.String("output", "text", "output format: text or json")
	explain := fs.Bool("explain", false, "show the score breakdown")
	compose := fs.Bool("compose", false, "compose a persona reply for the chosen outfit")
	fs.Usage = func() { printMatchUsage(fs) }
	_ = fs.Parse(args)

	text := cli.BuildQuery(fs.Args())
	if text == "" {
		printMatchUsage(fs)
		os.Exit(1)
	}
	q := models.MatchQuery{Text: text, SessionID: *session}
	if *role != "" {
		r, ok := models.ParseExpertRole(*role)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown role %q\n", *role)
			os.Exit(1)
		}
		q.Role = r
	}
	format := cli.ParseOutputFormat(*outputFormat)

	var result *models.MatchResult
	if *serverURL != "" {
		res, err := matchViaHTTP(*serverURL, q, *compose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
			os.Exit(1)
		}
		result = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewCLILogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		ctx := context.Background()
		components, err := initializeComponents(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		result, err = components.Engine.Match(ctx, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
			os.Exit(1)
		}
		if *compose || cfg.Matching.Compose {
			result.Response = components.Composer.Compose(ctx, result, q.Text)
		}
	}

	if err := cli.WriteMatchResult(os.Stdout, result, format, *explain); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

type matchBody struct {
	Text      string `json:"text"`
	Role      string `json:"expert_role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Compose   bool   `json:"compose"`
}

func matchViaHTTP(serverURL string, q models.MatchQuery, compose bool) (*models.MatchResult, error) {
	body, err := json.Marshal(matchBody{Text: q.Text, Role: string(q.Role), SessionID: q.SessionID, Compose: compose})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/match", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.MatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIngest() {
	args := cli.ReorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "re-analyze images that already have a record")
	hint := fs.String("hint", "", "extra context passed to the image analysis")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: outfitter ingest [flags] <image-file | directory | url>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	source := target
	if !isRemote(target) {
		info, err := os.Stat(target)
		if err != nil {
			fmt.Printf("Failed to stat path: %v\n", err)
			os.Exit(1)
		}
		if info.IsDir() {
			n, err := components.Ingester.IngestDirectory(ctx, target, cfg.Watch.Extensions, *force)
			if err != nil {
				fmt.Printf("Ingesting directory failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Ingested %d image(s) from %s\n", n, target)
			return
		}
		if source, err = filepath.Abs(target); err != nil {
			fmt.Printf("Failed to resolve path: %v\n", err)
			os.Exit(1)
		}
	}

	out, err := components.Ingester.IngestImage(ctx, ingest.Input{
		Source:     source,
		Hint:       *hint,
		Force:      *force,
		AllowLocal: !isRemote(target),
	})
	if err != nil {
		fmt.Printf("Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	if cli.ParseOutputFormat(*outputFormat) == cli.OutputJSON {
		if err := cli.WriteJSON(os.Stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	switch {
	case out.Skipped:
		fmt.Printf("Already ingested (use --force to re-analyze): %s\n", out.Record.ID)
	case out.Created:
		fmt.Printf("Record created: %s\n", out.Record.ID)
	default:
		fmt.Printf("Record replaced: %s\n", out.Record.ID)
	}
	cli.WriteRecord(os.Stdout, out.Record)
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: outfitter delete [flags] <record-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	existed, err := components.Ingester.Remove(ctx, id)
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	if !existed {
		fmt.Printf("Record not found: %s\n", id)
		os.Exit(1)
	}
	fmt.Printf("Record deleted: %s\n", id)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "clear the index and re-add every record")
	queued := fs.Bool("queue", false, "enqueue the rebuild for a worker instead of running it here")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if *queued {
		if components.Queue == nil {
			fmt.Println("Queue is not enabled in config")
			os.Exit(1)
		}
		taskID, err := components.Queue.EnqueueRebuild(ctx, *force)
		if err != nil {
			fmt.Printf("Enqueue failed: %v\n", err)
			os.Exit(1)
		}
		if taskID == "" {
			fmt.Println("A rebuild is already queued")
			return
		}
		fmt.Printf("Rebuild queued: %s\n", taskID)
		return
	}

	stats, err := components.Index.RebuildAll(ctx, *force)
	if err != nil {
		fmt.Printf("Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scanned %d record(s): %d indexed, %d updated, %d removed\n",
		stats.Scanned, stats.Indexed, stats.Updated, stats.Removed)
}

// Components holds initialized services.
type Components struct {
	Blobs    storage.BlobStore
	Catalog  *catalog.Catalog
	KV       kvstore.Store
	Index    *index.Index
	Engine   *search.Engine
	Composer *llm.Composer
	Ingester *ingest.Ingester
	Queue    *tasks.Queue

	asynqClient *asynq.Client
	closers     []io.Closer
}

// Close releases every component in reverse order of creation.
func (c *Components) Close() {
	if c.asynqClient != nil {
		_ = c.asynqClient.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	fail := func(err error) (*Components, error) {
		c.Close()
		return nil, err
	}

	blobs, err := newBlobStore(ctx, &cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize storage: %w", err))
	}

	cat, err := catalog.New(blobs,
		catalog.WithCacheSize(cfg.Storage.CacheSize),
		catalog.WithLogger(logger),
	)
	if err != nil {
		_ = blobs.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	c.Blobs = blobs
	c.Catalog = cat
	c.closers = append(c.closers, cat)

	kv := newKVStore(&cfg.KV)
	c.KV = kv
	c.closers = append(c.closers, kv)
	if err := kv.Ping(ctx); err != nil {
		// Matching still works by scanning the catalog.
		logger.Warn("key-value store unreachable; index and recency degraded",
			zap.String("backend", cfg.KV.Backend), zap.Error(err))
	}

	vocab := keyword.NewVocabulary()
	c.Index = index.New(kv, vocab, cat, index.WithLogger(logger))
	calc := ranking.NewCalculator(&cfg.Ranking, vocab)
	finder := search.NewFinder(cat, c.Index, calc, vocab,
		search.WithMinScore(cfg.Matching.MinScore),
		search.WithMaxCandidates(cfg.Matching.MaxCandidates),
		search.WithFinderLogger(logger),
	)
	recency := selection.NewRecencyWindow(kv,
		selection.WithMaxLen(cfg.Matching.RecencyMax),
		selection.WithTTL(cfg.Matching.RecencyTTL),
		selection.WithRecencyLogger(logger),
	)
	policy := selection.NewPolicy(recency, cat, calc,
		selection.WithConfig(cfg.SelectionConfig()),
		selection.WithLogger(logger),
	)
	c.Engine = search.NewEngine(cat, finder, policy, search.WithLogger(logger))

	vision, text, err := newModels(ctx, &cfg.LLM, logger)
	if err != nil {
		return fail(err)
	}
	c.Composer = llm.NewComposer(text, logger)
	c.Ingester = ingest.New(cat, c.Index, vision, ingest.WithLogger(logger))

	if cfg.Queue.Enabled {
		opts := workerOptions(cfg)
		c.asynqClient = asynq.NewClient(opts.RedisOpt())
		c.Queue = tasks.NewQueue(c.asynqClient, logger)
	}

	logger.Debug("components initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("kv", cfg.KV.Backend),
		zap.String("season", calc.Season()),
	)
	return c, nil
}

func newBlobStore(ctx context.Context, cfg *config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			AccountID:       cfg.AccountID,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			PublicBaseURL:   cfg.PublicBaseURL,
		})
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(cfg.DatabasePath)
	}
}

func newKVStore(cfg *config.KVConfig) kvstore.Store {
	if cfg.Backend == config.BackendRedis {
		return kvstore.NewRedisStore(kvstore.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Timeout:  cfg.Timeout,
		})
	}
	return kvstore.NewMemoryStore()
}

// newModels returns the vision analyzer and text generator. Without an API key, or
// with llm.mock set, images get canned analyses and replies fall back to a plain
// description of the outfit.
func newModels(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (llm.VisionAnalyzer, llm.TextGenerator, error) {
	if cfg.Mock || cfg.APIKey == "" {
		reason := "llm.mock set"
		if !cfg.Mock {
			reason = "no api key"
		}
		logger.Warn("using mock image analysis", zap.String("reason", reason))
		return llm.NewMockVision(), nil, nil
	}
	g, err := llm.NewGemini(ctx, llm.GeminiOptions{
		APIKey:      cfg.APIKey,
		VisionModel: cfg.VisionModel,
		TextModel:   cfg.TextModel,
		Timeout:     cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize gemini: %w", err)
	}
	return g, g, nil
}

func printUsage() {
	fmt.Println(`outfitter - Outfit matching service

Usage:
  outfitter server [flags]             Start the HTTP server (and inbox watcher)
  outfitter worker [flags]             Run the background task worker
  outfitter match [flags] <request>    Pick an outfit for a request
  outfitter ingest [flags] <path|url>  Analyze an image (or a directory of images) into records
  outfitter delete [flags] <id>        Delete a record
  outfitter rebuild [flags]            Sync the attribute index with the catalog
  outfitter version                    Show version
  outfitter help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/outfitter/config.yaml)
  --debug            Enable debug logging

Worker Flags:
  --config string    Config file path
  --concurrency int  Concurrent task handlers (default from config)

Match Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL. Empty (default) matches directly against storage.
  --role string      Expert role: style_analyst, trend_expert, color_expert, fitting_coordinator
  --session string   Session id; recently shown outfits are avoided
  --output string    Output format: text or json (default: text)
  --explain          Show the score breakdown
  --compose          Compose a persona reply

Ingest Flags:
  --config string    Config file path
  --force            Re-analyze images that already have a record
  --hint string      Extra context for the image analysis
  --output string    Output format: text or json (default: text)

Rebuild Flags:
  --config string    Config file path
  --force            Clear the index and re-add every record
  --queue            Enqueue the rebuild for a worker

Examples:
  outfitter server
  outfitter match navy blazer for a business meeting
  outfitter match --role color_expert --explain "first date"
  outfitter match --server http://localhost:8080 --session alice linen shirt
  outfitter ingest ~/closet/inbox
  outfitter ingest --force https://example.com/look.jpg
  outfitter rebuild --force`)
}
