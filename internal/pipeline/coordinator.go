// Package pipeline coordinates parallel page extraction and the sequential
// reduce phase that follows it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/extraction-engine/internal/cache"
	"github.com/skillforge/extraction-engine/internal/chapter"
	"github.com/skillforge/extraction-engine/internal/domain"
	"github.com/skillforge/extraction-engine/internal/extract"
	"github.com/skillforge/extraction-engine/internal/merge"
	"github.com/skillforge/extraction-engine/internal/observability"
)

// maxWorkerCap bounds the worker pool regardless of configuration.
const maxWorkerCap = 32

// Config holds coordinator configuration.
type Config struct {
	Parallel         bool
	MaxWorkers       int
	QualityThreshold float64
	CacheTTL         time.Duration
	// ConfigFingerprint folds the cache-relevant options into cache keys.
	ConfigFingerprint string
}

// Coordinator schedules page extraction across a worker pool and performs
// the ordered merge and chapter-detection reduce phase.
type Coordinator struct {
	extractor *extract.PageExtractor
	merger    *merge.Merger
	chapters  *chapter.Detector
	cache     cache.Client
	logger    *observability.Logger
	cfg       Config

	// OnPage, when set, is invoked after each page completes with the
	// number of done pages and the total.
	OnPage func(done, total int)
}

// NewCoordinator creates a pipeline coordinator. cacheClient may be a noop
// client when caching is disabled.
func NewCoordinator(
	extractor *extract.PageExtractor,
	merger *merge.Merger,
	chapters *chapter.Detector,
	cacheClient cache.Client,
	logger *observability.Logger,
	cfg Config,
) *Coordinator {
	if logger == nil {
		logger = observability.Nop()
	}
	if cacheClient == nil {
		cacheClient = cache.NewNoopClient()
	}
	return &Coordinator{
		extractor: extractor,
		merger:    merger,
		chapters:  chapters,
		cache:     cacheClient,
		logger:    logger,
		cfg:       cfg,
	}
}

// Process runs the full pipeline over the source document and returns the
// ordered Document. Page-level failures are recorded inline; only
// document-level failures return an error.
func (c *Coordinator) Process(ctx context.Context, src domain.Source) (*domain.Document, error) {
	runID := uuid.New().String()
	logger := c.logger.WithRun(runID)
	startTime := time.Now()

	key := cache.Key(src.ContentHash(), c.cfg.ConfigFingerprint)
	if doc, ok := c.lookup(ctx, key, logger); ok {
		doc.Stats.CacheHit = true
		return doc, nil
	}

	total := src.PageCount()
	logger.Info().
		Str("source", src.ID()).
		Int("pages", total).
		Bool("parallel", c.cfg.Parallel).
		Msg("Starting extraction run")

	pages := c.mapPhase(ctx, src, total)

	// Reduce phase is strictly sequential over page-number order, so
	// parallel scheduling order never influences the final output.
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})

	mergedBlocks := c.merger.Merge(pages)

	pageTexts := make([]chapter.PageText, len(pages))
	for i, p := range pages {
		pageTexts[i] = chapter.PageText{Number: p.Number, Text: p.Text}
	}
	chapters := c.chapters.Detect(pageTexts)
	chapter.Assign(pages, chapters)

	kept, dropped := c.applyThreshold(pages)

	doc := &domain.Document{
		SourceID:  src.ID(),
		PageCount: total,
		Encrypted: src.Encrypted(),
		Pages:     pages,
		Chapters:  chapters,
	}

	failed := doc.FailedPages()
	recognized := 0
	for _, p := range pages {
		if len(p.ImageTexts) > 0 {
			recognized++
		}
	}

	doc.Stats = domain.ProcessingStats{
		RunID:             runID,
		PagesProcessed:    total,
		SuccessfulPages:   total - len(failed),
		FailedPages:       len(failed),
		CandidatesKept:    kept,
		CandidatesDropped: dropped,
		MergedBlocks:      mergedBlocks,
		RecognizedPages:   recognized,
		Duration:          time.Since(startTime),
	}

	logger.Info().
		Int("successful_pages", doc.Stats.SuccessfulPages).
		Int("failed_pages", doc.Stats.FailedPages).
		Ints("failed_page_numbers", failed).
		Int("candidates", kept).
		Int("merged_blocks", mergedBlocks).
		Dur("duration", doc.Stats.Duration).
		Msg("Extraction run complete")

	c.store(ctx, key, doc, logger)

	return doc, nil
}

// mapPhase extracts every page, in parallel when configured. Each page is
// processed independently; a failure is captured into that page's slot and
// never aborts sibling pages.
func (c *Coordinator) mapPhase(ctx context.Context, src domain.Source, total int) []domain.Page {
	workers := c.workerCount(total)

	type workItem struct {
		index int
		page  int
	}

	workChan := make(chan workItem, total)
	results := make([]domain.Page, total)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i := 0; i < total; i++ {
		workChan <- workItem{index: i, page: i + 1}
	}
	close(workChan)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				page := c.processPage(ctx, src, item.page)

				mu.Lock()
				results[item.index] = page
				done++
				if c.OnPage != nil {
					c.OnPage(done, total)
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return results
}

// processPage extracts one page, converting any error into a failed page
// record.
func (c *Coordinator) processPage(ctx context.Context, src domain.Source, pageNum int) domain.Page {
	page, err := c.extractor.Extract(ctx, src, pageNum)
	if err != nil {
		c.logger.Warn().
			Int("page", pageNum).
			Err(err).
			Msg("Page extraction failed")
		return domain.Page{
			Number: pageNum,
			Failed: true,
			Error:  err.Error(),
		}
	}
	return page
}

// workerCount derives the pool size: sequential when parallel is off,
// otherwise bounded by configuration, available processing units and the
// page count.
func (c *Coordinator) workerCount(total int) int {
	if !c.cfg.Parallel {
		return 1
	}

	workers := runtime.NumCPU()
	if c.cfg.MaxWorkers > 0 && workers > c.cfg.MaxWorkers {
		workers = c.cfg.MaxWorkers
	}
	if workers > maxWorkerCap {
		workers = maxWorkerCap
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// applyThreshold drops candidates scoring below the quality threshold from
// the final pages. It runs after merging so fused blocks are judged on
// their recomputed score.
func (c *Coordinator) applyThreshold(pages []domain.Page) (kept, dropped int) {
	for i := range pages {
		var filtered []domain.CodeCandidate
		for _, cand := range pages[i].Candidates {
			if cand.Score >= c.cfg.QualityThreshold {
				filtered = append(filtered, cand)
				kept++
			} else {
				dropped++
			}
		}
		pages[i].Candidates = filtered
	}
	return kept, dropped
}

// lookup fetches a previously computed document from cache. A corrupt
// entry is treated as a miss and will be overwritten by the recompute.
func (c *Coordinator) lookup(ctx context.Context, key string, logger *observability.Logger) (*domain.Document, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache read failed, recomputing")
		}
		return nil, false
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		corrupt := domain.CacheCorruptionError("decode cached document", err)
		logger.Warn().Err(corrupt).Msg("Corrupt cache entry, recomputing")
		return nil, false
	}

	logger.Debug().Str("key", key).Msg("Served document from cache")
	return &doc, true
}

// store writes the computed document to cache. Failures are non-fatal.
func (c *Coordinator) store(ctx context.Context, key string, doc *domain.Document, logger *observability.Logger) {
	data, err := json.Marshal(doc)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode document for cache")
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to store document in cache")
	}
}
