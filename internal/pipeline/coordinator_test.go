package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/extraction-engine/internal/cache"
	"github.com/skillforge/extraction-engine/internal/chapter"
	"github.com/skillforge/extraction-engine/internal/domain"
	"github.com/skillforge/extraction-engine/internal/extract"
	"github.com/skillforge/extraction-engine/internal/lang"
	"github.com/skillforge/extraction-engine/internal/merge"
	"github.com/skillforge/extraction-engine/internal/observability"
	"github.com/skillforge/extraction-engine/internal/score"
)

// stubSource is an in-memory document for pipeline tests.
type stubSource struct {
	id       string
	hash     string
	texts    []string // one entry per page, 0-indexed
	failPage int      // page number whose text extraction fails, 0 for none
}

func (s *stubSource) PageCount() int { return len(s.texts) }

func (s *stubSource) PageText(ctx context.Context, page int) (string, error) {
	if page == s.failPage {
		return "", errors.New("simulated extraction failure")
	}
	return s.texts[page-1], nil
}

func (s *stubSource) PageImage(ctx context.Context, page int) ([]byte, error) {
	return nil, errors.New("no images in stub")
}

func (s *stubSource) Encrypted() bool { return false }

func (s *stubSource) ContentHash() string { return s.hash }

func (s *stubSource) ID() string { return s.id }

func (s *stubSource) Close() error { return nil }

// fourPageDoc is a small document exercising headings, a code block split
// across a page boundary, and plain prose.
func fourPageDoc() *stubSource {
	return &stubSource{
		id:   "testdoc",
		hash: "hash-testdoc-v1",
		texts: []string{
			"Chapter 1: Basics\n\nIntroductory prose about slices and maps.",
			"func sum(values []int) int {\n\ttotal := 0\n\tfor _, v := range values {",
			"\t\ttotal += v\n\t}\n\tfmt.Println(total)\n\treturn total\n}",
			"Chapter 2: Advanced\n\nClosing prose without any code at all.",
		},
	}
}

func newCoordinator(cacheClient cache.Client, cfg Config) *Coordinator {
	detector := lang.NewDetector()
	validator := lang.NewValidator(detector)
	scorer := score.NewScorer()
	logger := observability.Nop()

	extractor := extract.NewPageExtractor(detector, validator, scorer, nil, logger,
		extract.Config{ExtractTables: true, MinTextLength: 10})
	merger := merge.NewMerger(detector, validator, scorer, logger)

	return NewCoordinator(extractor, merger, chapter.NewDetector(), cacheClient, logger, cfg)
}

func TestCoordinator_Process_OrderedOutput(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: true, MaxWorkers: 4})

	doc, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	require.Len(t, doc.Pages, 4)
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
	}
	assert.Equal(t, 4, doc.PageCount)
	assert.Equal(t, "testdoc", doc.SourceID)
	assert.False(t, doc.Encrypted)
}

func TestCoordinator_Process_ParallelMatchesSequential(t *testing.T) {
	parallel := newCoordinator(cache.NewNoopClient(), Config{Parallel: true, MaxWorkers: 4})
	sequential := newCoordinator(cache.NewNoopClient(), Config{Parallel: false})

	docP, err := parallel.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)
	docS, err := sequential.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.Equal(t, docS.Pages, docP.Pages)
	assert.Equal(t, docS.Chapters, docP.Chapters)
	assert.Equal(t, docS.Stats.MergedBlocks, docP.Stats.MergedBlocks)
	assert.Equal(t, docS.Stats.CandidatesKept, docP.Stats.CandidatesKept)
}

func TestCoordinator_Process_MergesAcrossPages(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: false})

	doc, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Stats.MergedBlocks)

	var fused *domain.CodeCandidate
	for _, cand := range doc.Candidates() {
		if cand.Pages.Start != cand.Pages.End {
			fused = &cand
			break
		}
	}
	require.NotNil(t, fused, "expected a candidate spanning pages")
	assert.Equal(t, domain.PageRange{Start: 2, End: 3}, fused.Pages)
	assert.Equal(t, domain.LangGo, fused.Language)
	assert.True(t, fused.SyntaxOK)
}

func TestCoordinator_Process_DetectsChapters(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: false})

	doc, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, "Basics", doc.Chapters[0].Title)
	assert.Equal(t, "Advanced", doc.Chapters[1].Title)
	assert.Equal(t, "Basics", doc.Pages[1].Chapter)
	assert.Equal(t, "Advanced", doc.Pages[3].Chapter)
}

func TestCoordinator_Process_PageFailureIsolated(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: true, MaxWorkers: 4})

	src := fourPageDoc()
	src.failPage = 3

	doc, err := c.Process(context.Background(), src)
	require.NoError(t, err, "a page failure must not fail the document")

	assert.Equal(t, []int{3}, doc.FailedPages())
	assert.Equal(t, 3, doc.Stats.SuccessfulPages)
	assert.Equal(t, 1, doc.Stats.FailedPages)

	failed := doc.Pages[2]
	assert.True(t, failed.Failed)
	assert.NotEmpty(t, failed.Error)
	assert.Empty(t, failed.Candidates)

	// Neighbors keep their content.
	assert.NotEmpty(t, doc.Pages[1].Text)
	assert.NotEmpty(t, doc.Pages[3].Text)
}

func TestCoordinator_Process_QualityThreshold(t *testing.T) {
	strict := newCoordinator(cache.NewNoopClient(), Config{Parallel: false, QualityThreshold: 9.9})

	doc, err := strict.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.Empty(t, doc.Candidates())
	assert.Equal(t, 0, doc.Stats.CandidatesKept)
	assert.Greater(t, doc.Stats.CandidatesDropped, 0)

	open := newCoordinator(cache.NewNoopClient(), Config{Parallel: false, QualityThreshold: 0})

	doc, err = open.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.Greater(t, doc.Stats.CandidatesKept, 0)
	assert.Equal(t, 0, doc.Stats.CandidatesDropped)
}

func TestCoordinator_Process_CacheHit(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	cfg := Config{Parallel: false, ConfigFingerprint: "fp-a"}

	c := newCoordinator(mem, cfg)

	first, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)
	assert.False(t, first.Stats.CacheHit)

	second, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)
	assert.True(t, second.Stats.CacheHit)

	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Chapters, second.Chapters)
	assert.Equal(t, first.SourceID, second.SourceID)
}

func TestCoordinator_Process_FingerprintChangeRecomputes(t *testing.T) {
	mem := cache.NewMemoryClient(10)

	a := newCoordinator(mem, Config{Parallel: false, ConfigFingerprint: "fp-a"})
	_, err := a.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	b := newCoordinator(mem, Config{Parallel: false, ConfigFingerprint: "fp-b"})
	doc, err := b.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.False(t, doc.Stats.CacheHit, "a different fingerprint must never serve cached results")
}

func TestCoordinator_Process_CorruptCacheEntryRecomputes(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	ctx := context.Background()
	src := fourPageDoc()

	key := cache.Key(src.ContentHash(), "fp-a")
	require.NoError(t, mem.Set(ctx, key, []byte("{not valid json"), 0))

	c := newCoordinator(mem, Config{Parallel: false, ConfigFingerprint: "fp-a"})

	doc, err := c.Process(ctx, src)
	require.NoError(t, err)
	assert.False(t, doc.Stats.CacheHit)
	assert.Len(t, doc.Pages, 4)

	// The recompute overwrote the corrupt entry.
	fresh, err := c.Process(ctx, src)
	require.NoError(t, err)
	assert.True(t, fresh.Stats.CacheHit)
}

func TestCoordinator_Process_OnPageProgress(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: false})

	var calls []int
	c.OnPage = func(done, total int) {
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	}

	_, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}

func TestCoordinator_WorkerCount(t *testing.T) {
	seq := newCoordinator(cache.NewNoopClient(), Config{Parallel: false, MaxWorkers: 8})
	assert.Equal(t, 1, seq.workerCount(100))

	par := newCoordinator(cache.NewNoopClient(), Config{Parallel: true, MaxWorkers: 2})
	workers := par.workerCount(100)
	assert.GreaterOrEqual(t, workers, 1)
	assert.LessOrEqual(t, workers, 2)

	// Never more workers than pages.
	assert.Equal(t, 1, par.workerCount(1))
}

func TestCoordinator_Process_RunStats(t *testing.T) {
	c := newCoordinator(cache.NewNoopClient(), Config{Parallel: false})

	doc, err := c.Process(context.Background(), fourPageDoc())
	require.NoError(t, err)

	assert.NotEmpty(t, doc.Stats.RunID)
	assert.Equal(t, 4, doc.Stats.PagesProcessed)
	assert.Equal(t, 4, doc.Stats.SuccessfulPages)
	assert.GreaterOrEqual(t, doc.Stats.Duration, time.Duration(0))
}
