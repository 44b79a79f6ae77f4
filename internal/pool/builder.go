// Package pool builds and serves the random anime pool: a deduplicated,
// enriched collection aggregated from TMDB, MyAnimeList and bgm.tv.
package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hhlyyng/animesub/internal/apperrors"
	"github.com/hhlyyng/animesub/internal/cachestore"
	"github.com/hhlyyng/animesub/internal/source/bangumi"
	"github.com/hhlyyng/animesub/internal/source/jikan"
	"github.com/hhlyyng/animesub/internal/tmdb"
)

// SourceKey is the durable snapshot key for the random pool.
const SourceKey = "random_pool"

// rateLimitBackoff is the enrichment pause after a 429 without a
// Retry-After hint.
const rateLimitBackoff = 30 * time.Second

// Config tunes the build schedule and the per-source request shapes.
type Config struct {
	// StartupDelay lets the rest of the process finish initializing
	// before the first cycle.
	StartupDelay time.Duration
	// RebuildInterval is both the cycle sleep and the staleness bound
	// for the durable snapshot.
	RebuildInterval time.Duration
	// EnrichDelay is slept after every item that hit the enrichment API.
	EnrichDelay time.Duration
	// PageDelay separates the sequential bgm.tv page requests.
	PageDelay time.Duration
	// SaveEvery is the incremental save granularity in enriched items.
	SaveEvery int

	ListLimit   int // per TMDB sorted list
	RankedLimit int // MAL top list
	PageSize    int // bgm.tv page size
	PageCount   int // bgm.tv pages
}

// DefaultConfig returns the production build schedule.
func DefaultConfig() Config {
	return Config{
		StartupDelay:    10 * time.Second,
		RebuildInterval: 24 * time.Hour,
		EnrichDelay:     time.Second,
		PageDelay:       2 * time.Second,
		SaveEvery:       50,
		ListLimit:       50,
		RankedLimit:     50,
		PageSize:        25,
		PageCount:       2,
	}
}

func (c Config) normalized() Config {
	if c.RebuildInterval <= 0 {
		c.RebuildInterval = 24 * time.Hour
	}
	if c.SaveEvery <= 0 {
		c.SaveEvery = 50
	}
	if c.ListLimit <= 0 {
		c.ListLimit = 50
	}
	if c.RankedLimit <= 0 {
		c.RankedLimit = 50
	}
	if c.PageSize <= 0 {
		c.PageSize = 25
	}
	if c.PageCount <= 0 {
		c.PageCount = 2
	}
	return c
}

// ListSource is the TMDB sorted-list collector (branch A).
type ListSource interface {
	TrendingTV(ctx context.Context, limit int) ([]tmdb.ListEntry, error)
	PopularTV(ctx context.Context, limit int) ([]tmdb.ListEntry, error)
	TopRatedTV(ctx context.Context, limit int) ([]tmdb.ListEntry, error)
}

// RankedSource is the MAL ranked-list collector (branch B).
type RankedSource interface {
	TopAnime(ctx context.Context, limit int) ([]jikan.Anime, error)
}

// PagedSource is the bgm.tv paginated collector (branch C).
type PagedSource interface {
	Page(ctx context.Context, page, pageSize int) ([]bangumi.Subject, error)
}

// Enricher performs the per-item supplementary lookup.
type Enricher interface {
	SetAPIKey(key string)
	Lookup(ctx context.Context, query, airDateHint string) (*tmdb.Match, error)
}

// SnapshotStore is the durable single-row persistence for the pool.
type SnapshotStore interface {
	Get(sourceKey string) (*cachestore.Snapshot, error)
	Put(sourceKey, payload string) error
}

// TokenSource supplies the enrichment access token, read once per build.
type TokenSource interface {
	EnrichmentToken() (string, error)
}

// Sources bundles the three collection branches and the enricher.
type Sources struct {
	TMDB     ListSource
	MAL      RankedSource
	Bangumi  PagedSource
	Enricher Enricher
}

// Builder coordinates collection, dedup, enrichment and persistence of
// the pool, and runs the resident rebuild schedule.
type Builder struct {
	service *Service
	store   SnapshotStore
	tokens  TokenSource
	sources Sources
	cfg     Config
}

// NewBuilder creates a pool builder. cfg fields left zero fall back to
// production defaults.
func NewBuilder(service *Service, store SnapshotStore, tokens TokenSource, sources Sources, cfg Config) *Builder {
	return &Builder{
		service: service,
		store:   store,
		tokens:  tokens,
		sources: sources,
		cfg:     cfg.normalized(),
	}
}

// Run is the resident scheduling loop. It returns when ctx is cancelled;
// any snapshot already saved durably stays valid across a shutdown.
func (b *Builder) Run(ctx context.Context) {
	slog.Info("Pool builder started", "startup_delay", b.cfg.StartupDelay, "rebuild_interval", b.cfg.RebuildInterval)
	if err := sleepCtx(ctx, b.cfg.StartupDelay); err != nil {
		return
	}

	for {
		b.runCycle(ctx)
		if err := sleepCtx(ctx, b.cfg.RebuildInterval); err != nil {
			slog.Info("Pool builder stopped")
			return
		}
	}
}

// runCycle evaluates freshness and runs at most one build. A panicking
// build fails only this cycle; the schedule keeps going.
func (b *Builder) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.service.SetBuilding(false)
			slog.Error("Pool build panicked", "panic", r)
		}
	}()

	if !b.shouldRebuild() {
		slog.Debug("Pool rebuild not needed")
		return
	}

	buildID := uuid.NewString()[:8]
	start := time.Now()
	slog.Info("Pool rebuild starting", "build_id", buildID)

	if err := b.BuildPool(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Pool build cancelled", "build_id", buildID)
			return
		}
		slog.Error("Pool build failed", "build_id", buildID, "error", err)
		return
	}
	slog.Info("Pool rebuild finished", "build_id", buildID, "records", b.service.Size(), "duration", time.Since(start))
}

// shouldRebuild decides whether a build is due. As a side effect it
// warms the in-memory pool from a still-fresh durable snapshot, so
// readers are served without waiting a full rebuild after a restart.
func (b *Builder) shouldRebuild() bool {
	if b.service.Size() > 0 {
		return false
	}

	snap, err := b.store.Get(SourceKey)
	if err != nil {
		slog.Warn("Failed to read pool snapshot, rebuilding", "error", err)
		return true
	}
	if snap == nil {
		return true
	}

	age := time.Now().UTC().Sub(snap.UpdatedAt)
	if age > b.cfg.RebuildInterval {
		slog.Info("Pool snapshot stale", "age", age)
		return true
	}

	var records []Record
	if err := json.Unmarshal([]byte(snap.Payload), &records); err != nil {
		// Not fatal and not a rebuild trigger: the snapshot is fresh,
		// we only lose the warm-up benefit.
		slog.Warn("Pool snapshot payload unreadable, cache warm skipped", "error", err)
		return false
	}
	if len(records) > 0 {
		b.service.Replace(records)
		slog.Info("Pool warmed from snapshot", "records", len(records), "age", age)
	}
	return false
}

// BuildPool runs one full collection + enrichment pass and persists the
// result incrementally and finally. The building flag is cleared on
// every exit path.
func (b *Builder) BuildPool(ctx context.Context) error {
	b.service.SetBuilding(true)
	defer b.service.SetBuilding(false)

	token, err := b.tokens.EnrichmentToken()
	if err != nil {
		slog.Warn("Failed to read enrichment token", "error", err)
	} else if token != "" {
		b.sources.Enricher.SetAPIKey(token)
	}

	items := b.collect(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info("Pool collection finished", "items", len(items))

	return b.enrich(ctx, items)
}

// collect fans out across the three source branches. A failing branch
// contributes zero items and never aborts its siblings; the merge order
// is fixed at TMDB, MAL, bgm.tv regardless of completion order.
func (b *Builder) collect(ctx context.Context) []RawItem {
	var branchA, branchB, branchC []RawItem

	var wg sync.WaitGroup
	run := func(branch string, out *[]RawItem, fn func(context.Context) []RawItem) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Collection branch panicked", "branch", branch, "panic", r)
			}
		}()
		*out = fn(ctx)
	}
	wg.Add(3)
	go run("tmdb", &branchA, b.collectTMDB)
	go run("mal", &branchB, b.collectMAL)
	go run("bgm", &branchC, b.collectBangumi)
	wg.Wait()

	return mergeBranches(branchA, branchB, branchC)
}

// collectTMDB runs the three sorted list queries concurrently and keeps
// their results in trending, popular, top-rated order.
func (b *Builder) collectTMDB(ctx context.Context) []RawItem {
	type listFetch struct {
		name  string
		fetch func(context.Context, int) ([]tmdb.ListEntry, error)
	}
	fetches := []listFetch{
		{"trending", b.sources.TMDB.TrendingTV},
		{"popular", b.sources.TMDB.PopularTV},
		{"top_rated", b.sources.TMDB.TopRatedTV},
	}

	results := make([][]tmdb.ListEntry, len(fetches))
	var wg sync.WaitGroup
	wg.Add(len(fetches))
	for i, f := range fetches {
		go func(i int, f listFetch) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("TMDB list fetch panicked", "list", f.name, "panic", r)
				}
			}()
			entries, err := f.fetch(ctx, b.cfg.ListLimit)
			if err != nil {
				slog.Warn("TMDB list fetch failed", "list", f.name, "error", err)
				return
			}
			results[i] = entries
		}(i, f)
	}
	wg.Wait()

	var items []RawItem
	for _, entries := range results {
		for _, e := range entries {
			items = append(items, rawFromTMDB(e))
		}
	}
	return items
}

func (b *Builder) collectMAL(ctx context.Context) []RawItem {
	entries, err := b.sources.MAL.TopAnime(ctx, b.cfg.RankedLimit)
	if err != nil {
		slog.Warn("MAL top anime fetch failed", "error", err)
		return nil
	}

	items := make([]RawItem, 0, len(entries))
	for _, a := range entries {
		items = append(items, rawFromJikan(a))
	}
	return items
}

// collectBangumi fetches the configured pages sequentially with the
// inter-page delay bgm.tv expects. A failing page keeps what earlier
// pages already contributed.
func (b *Builder) collectBangumi(ctx context.Context) []RawItem {
	var items []RawItem
	for page := 1; page <= b.cfg.PageCount; page++ {
		if page > 1 {
			if err := sleepCtx(ctx, b.cfg.PageDelay); err != nil {
				return items
			}
		}
		subjects, err := b.sources.Bangumi.Page(ctx, page, b.cfg.PageSize)
		if err != nil {
			slog.Warn("Bangumi page fetch failed", "page", page, "error", err)
			return items
		}
		for _, s := range subjects {
			items = append(items, rawFromBangumi(s))
		}
	}
	return items
}

// enrich walks the merged items in collection order, performs the
// rate-limited lookup per item and saves incrementally every SaveEvery
// records. A lookup miss or failure never drops the item.
func (b *Builder) enrich(ctx context.Context, items []RawItem) error {
	records := make([]Record, 0, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		var match *tmdb.Match
		queried := false
		var backoff time.Duration
		if item.SearchTitle != "" {
			queried = true
			m, err := b.sources.Enricher.Lookup(ctx, item.SearchTitle, item.AirDate)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case apperrors.IsRateLimitError(err):
				// A 429 means the remaining lookups would be wasted at the
				// normal cadence. Pause for the Retry-After hint and keep
				// going; the item stays in the pool unenriched.
				var rle *apperrors.RateLimitError
				errors.As(err, &rle)
				backoff = rle.RetryAfter
				if backoff <= 0 {
					backoff = rateLimitBackoff
				}
				slog.Warn("Enrichment rate limited, backing off", "key", item.Key, "backoff", backoff)
			case err != nil:
				slog.Warn("Enrichment lookup failed", "key", item.Key, "title", item.SearchTitle, "error", err)
			default:
				match = m
			}
		}

		records = append(records, newRecord(item, match))

		if len(records)%b.cfg.SaveEvery == 0 {
			if err := b.save(records); err != nil {
				slog.Error("Incremental pool save failed", "records", len(records), "error", err)
			} else {
				slog.Info("Pool progress saved", "records", len(records), "total", len(items))
			}
		}

		if backoff > 0 && i < len(items)-1 {
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
		} else if queried && i < len(items)-1 {
			if err := sleepCtx(ctx, b.cfg.EnrichDelay); err != nil {
				return err
			}
		}
	}

	// The final save runs unconditionally so snapshot and memory match
	// the full result even when the count is not a SaveEvery multiple.
	if err := b.save(records); err != nil {
		return fmt.Errorf("final pool save: %w", err)
	}
	return nil
}

// save persists records durably and then replaces the in-memory pool
// with the same data, keeping both views consistent.
func (b *Builder) save(records []Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	if err := b.store.Put(SourceKey, string(payload)); err != nil {
		return err
	}
	b.service.Replace(records)
	return nil
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
