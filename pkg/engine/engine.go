// Package engine is the public entry point for the extraction engine. It
// wires the document accessor, page extractor, merger, chapter detector and
// cache into a single pipeline and hands the resulting Document record to
// downstream consumers.
package engine

import (
	"context"
	"fmt"

	"github.com/skillforge/extraction-engine/internal/cache"
	"github.com/skillforge/extraction-engine/internal/chapter"
	"github.com/skillforge/extraction-engine/internal/config"
	"github.com/skillforge/extraction-engine/internal/domain"
	"github.com/skillforge/extraction-engine/internal/extract"
	"github.com/skillforge/extraction-engine/internal/lang"
	"github.com/skillforge/extraction-engine/internal/merge"
	"github.com/skillforge/extraction-engine/internal/observability"
	"github.com/skillforge/extraction-engine/internal/ocr"
	"github.com/skillforge/extraction-engine/internal/pdfdoc"
	"github.com/skillforge/extraction-engine/internal/pipeline"
	"github.com/skillforge/extraction-engine/internal/score"
)

// Re-export the document record types for public consumers.
type (
	Document      = domain.Document
	Page          = domain.Page
	CodeCandidate = domain.CodeCandidate
	Table         = domain.Table
	Chapter       = domain.Chapter
	Source        = domain.Source
	Recognizer    = domain.Recognizer
)

// Engine runs the page-level extraction and quality pipeline.
type Engine struct {
	cfg        *config.Config
	logger     *observability.Logger
	cache      cache.Client
	recognizer domain.Recognizer
	ownsOCR    *ocr.Tesseract // set when the engine built its own recognizer

	// OnPage, when set, receives progress callbacks (done, total).
	OnPage func(done, total int)
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(logger *observability.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRecognizer injects a recognition-from-image capability, replacing the
// built-in Tesseract recognizer.
func WithRecognizer(r domain.Recognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// WithCache injects a cache client, replacing the one built from config.
func WithCache(c cache.Client) Option {
	return func(e *Engine) { e.cache = c }
}

// New creates an engine from configuration. The cache client is owned by
// the engine and released by Close; the caller may clear it between runs
// via the injected client.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "extraction-engine",
		})
	}

	if e.cache == nil {
		client, err := buildCache(cfg)
		if err != nil {
			return nil, err
		}
		e.cache = client
	}

	if e.recognizer == nil && cfg.Extraction.EnableRecognitionFallback {
		t, err := ocr.New(cfg.Extraction.RecognitionLanguage)
		if err != nil {
			// Absence is a valid configuration: degrade gracefully.
			e.logger.Warn().
				Err(err).
				Str("error_type", string(domain.ErrorTypeRecognition)).
				Msg("Recognition capability unavailable, sparse pages will keep extracted text")
		} else {
			e.recognizer = t
			e.ownsOCR = t
		}
	}

	return e, nil
}

// buildCache constructs the cache client named by configuration. A
// disabled cache yields the noop client so pipeline behavior is identical.
func buildCache(cfg *config.Config) (cache.Client, error) {
	if !cfg.Cache.Enabled {
		return cache.NewNoopClient(), nil
	}

	switch cfg.Cache.Driver {
	case "memory":
		return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
	case "redis":
		return cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
	case "sqlite":
		return cache.NewSQLiteClient(cfg.Cache.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Cache.Driver)
	}
}

// ExtractFile opens the document at path and runs the pipeline over it.
// password may be empty for unencrypted documents.
func (e *Engine) ExtractFile(ctx context.Context, path, password string) (*Document, error) {
	src, err := pdfdoc.Open(path, password)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return e.ExtractSource(ctx, src)
}

// ExtractSource runs the pipeline over an already-open source. Useful for
// custom source implementations and tests.
func (e *Engine) ExtractSource(ctx context.Context, src Source) (*Document, error) {
	detector := lang.NewDetector()
	validator := lang.NewValidator(detector)
	scorer := score.NewScorer()

	extractor := extract.NewPageExtractor(detector, validator, scorer, e.recognizer, e.logger, extract.Config{
		EnableRecognitionFallback: e.cfg.Extraction.EnableRecognitionFallback,
		ExtractTables:             e.cfg.Extraction.ExtractTables,
		MinTextLength:             e.cfg.Extraction.MinTextLength,
	})

	coordinator := pipeline.NewCoordinator(
		extractor,
		merge.NewMerger(detector, validator, scorer, e.logger),
		chapter.NewDetector(),
		e.cache,
		e.logger,
		pipeline.Config{
			Parallel:          e.cfg.Pipeline.Parallel,
			MaxWorkers:        e.cfg.Pipeline.MaxWorkers,
			QualityThreshold:  e.cfg.Extraction.QualityThreshold,
			CacheTTL:          e.cfg.Cache.TTL,
			ConfigFingerprint: e.cfg.Fingerprint(),
		},
	)
	coordinator.OnPage = e.OnPage

	return coordinator.Process(ctx, src)
}

// Close releases the cache client and any engine-owned recognizer.
func (e *Engine) Close() error {
	var firstErr error
	if e.ownsOCR != nil {
		if err := e.ownsOCR.Close(); err != nil {
			firstErr = err
		}
	}
	if err := e.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
