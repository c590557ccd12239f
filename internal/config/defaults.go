package config

import (
	"time"

	"github.com/hyperjump/outfitter/internal/ingest"
	"github.com/hyperjump/outfitter/internal/llm"
	"github.com/hyperjump/outfitter/internal/search"
	"github.com/hyperjump/outfitter/internal/selection"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/outfitter/data/records.db"
	}
	if cfg.Storage.Prefix == "" && cfg.Storage.Backend == BackendS3 {
		cfg.Storage.Prefix = "records/"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "auto"
	}
	if cfg.Storage.CacheSize == 0 {
		cfg.Storage.CacheSize = 10000
	}

	if cfg.KV.Backend == "" {
		cfg.KV.Backend = BackendRedis
	}
	if cfg.KV.Addr == "" {
		cfg.KV.Addr = "localhost:6379"
	}
	if cfg.KV.Timeout == 0 {
		cfg.KV.Timeout = 5 * time.Second
	}

	sel := selection.DefaultConfig()
	if cfg.Matching.MinScore == 0 {
		cfg.Matching.MinScore = search.DefaultMinScore
	}
	if cfg.Matching.MaxCandidates == 0 {
		cfg.Matching.MaxCandidates = search.DefaultMaxCandidates
	}
	if cfg.Matching.PoolSize == 0 {
		cfg.Matching.PoolSize = sel.PoolSize
	}
	if cfg.Matching.RecencyMax == 0 {
		cfg.Matching.RecencyMax = selection.DefaultRecencyMax
	}
	if cfg.Matching.RecencyLookback == 0 {
		cfg.Matching.RecencyLookback = sel.Lookback
	}
	if cfg.Matching.RecencyTTL == 0 {
		cfg.Matching.RecencyTTL = selection.DefaultRecencyTTL
	}
	if cfg.Matching.WidenCount == 0 {
		cfg.Matching.WidenCount = sel.WidenCount
	}
	if cfg.Matching.MinPoolAfterFilter == 0 {
		cfg.Matching.MinPoolAfterFilter = sel.MinPool
	}
	if cfg.Matching.Season != "" {
		cfg.Ranking.Season = cfg.Matching.Season
	}
	cfg.Ranking.ApplyDefaults()
	cfg.Matching.Season = cfg.Ranking.Season

	if cfg.LLM.VisionModel == "" {
		cfg.LLM.VisionModel = llm.DefaultVisionModel
	}
	if cfg.LLM.TextModel == "" {
		cfg.LLM.TextModel = llm.DefaultTextModel
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = llm.DefaultTimeout
	}

	if cfg.Queue.RedisAddr == "" {
		cfg.Queue.RedisAddr = cfg.KV.Addr
	}
	if cfg.Queue.Concurrency == 0 {
		cfg.Queue.Concurrency = 4
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = ingest.DefaultExtensions
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// SelectionConfig returns the selection policy parameters derived from the matching section.
func (c *Config) SelectionConfig() selection.Config {
	sel := selection.DefaultConfig()
	sel.PoolSize = c.Matching.PoolSize
	sel.Lookback = c.Matching.RecencyLookback
	sel.WidenCount = c.Matching.WidenCount
	sel.MinPool = c.Matching.MinPoolAfterFilter
	return sel
}
