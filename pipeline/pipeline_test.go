package pipeline

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsharvest"
	"newsharvest/scraper"
)

const indexFixture = `<html><body>
<div class="slot noticia">
	<div class="volanta">MARKETS</div>
	<h2 class="titulo"><a href="/news/1">Breaking: Market Falls Sharply</a></h2>
	<div class="imagen"><img src="/img/1.jpg"></div>
</div>
<div class="slot noticia">
	<div class="volanta">REGULATION</div>
	<h2 class="titulo"><a href="/news/2">New Rules Announced</a></h2>
	<div class="imagen"><img src="/img/2.jpg"></div>
</div>
<div class="slot noticia">
	<h2 class="titulo"><a href="/news/3">   </a></h2>
</div>
</body></html>`

// fakeFetcher serves a canned snapshot or error.
type fakeFetcher struct {
	html string
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*scraper.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return scraper.NewSnapshot(doc, base, nil), nil
}

// recordingSink captures what the pipeline hands over.
type recordingSink struct {
	name    string
	batch   newsharvest.Batch
	summary *Summary
	writes  int
	err     error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, batch newsharvest.Batch, summary *Summary) error {
	s.writes++
	s.batch = batch
	s.summary = summary
	return s.err
}

func newTestPipeline(fetcher scraper.Fetcher, maxArticles int, sinks ...Sink) *Pipeline {
	resolver := scraper.NewResolver(nil, scraper.ResolverConfig{}, zap.NewNop())
	extractor := scraper.NewExtractor(maxArticles, zap.NewNop())
	return New(fetcher, resolver, extractor, sinks, zap.NewNop())
}

// TestRun_Success verifies the full fetch-resolve-extract-enrich-emit flow
func TestRun_Success(t *testing.T) {
	sink := &recordingSink{name: "test"}
	p := newTestPipeline(&fakeFetcher{html: indexFixture}, 10, sink)

	batch, summary, err := p.Run(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, summary.Status)
	assert.Equal(t, scraper.SourceStatic, summary.SelectorSource)
	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Extracted)
	assert.Equal(t, 1, summary.Dropped, "whitespace-only title is dropped")
	assert.NotEqual(t, summary.RunID.String(), "00000000-0000-0000-0000-000000000000")

	require.Len(t, batch, 2)
	first := batch[0]
	assert.Equal(t, "Breaking: Market Falls Sharply", first.Title)
	assert.Equal(t, "https://example.com/news/1", first.LinkURL)
	assert.Equal(t, 4, first.WordCount, "metrics attached after extraction")
	assert.Equal(t, []string{"Breaking:", "Market", "Falls", "Sharply"}, first.CapitalizedWords)

	assert.Equal(t, 1, sink.writes, "batch handed to sink exactly once")
	assert.Equal(t, batch, sink.batch)
	assert.Zero(t, summary.SinkErrors)
}

// TestRun_FetchFailureFatal verifies no batch is emitted when the fetch
// fails
func TestRun_FetchFailureFatal(t *testing.T) {
	sink := &recordingSink{name: "test"}
	p := newTestPipeline(&fakeFetcher{err: errors.New("render timeout")}, 10, sink)

	batch, summary, err := p.Run(context.Background(), "https://example.com/")

	require.Error(t, err)
	assert.Nil(t, batch)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Zero(t, summary.Extracted)
	assert.Zero(t, sink.writes, "sinks must not run on a failed fetch")
}

// TestRun_SinkFailureNotFatal verifies sink errors degrade to summary
// counters
func TestRun_SinkFailureNotFatal(t *testing.T) {
	bad := &recordingSink{name: "bad", err: errors.New("disk full")}
	good := &recordingSink{name: "good"}
	p := newTestPipeline(&fakeFetcher{html: indexFixture}, 10, bad, good)

	_, summary, err := p.Run(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, StatusOK, summary.Status)
	assert.Equal(t, 1, summary.SinkErrors)
	assert.Equal(t, 1, good.writes, "later sinks still receive the batch")
}

// TestRun_MaxArticles verifies the cap flows through to the summary
func TestRun_MaxArticles(t *testing.T) {
	p := newTestPipeline(&fakeFetcher{html: indexFixture}, 1)

	batch, summary, err := p.Run(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 1, summary.Attempted, "extraction stops at the cap")
}

// TestRun_AIFallbackReportedInSummary verifies a failing discovery call
// still yields a static-source run
func TestRun_AIFallbackReportedInSummary(t *testing.T) {
	finder := failingFinder{}
	resolver := scraper.NewResolver(finder, scraper.ResolverConfig{AIEnabled: true}, zap.NewNop())
	extractor := scraper.NewExtractor(10, zap.NewNop())
	p := New(&fakeFetcher{html: indexFixture}, resolver, extractor, nil, zap.NewNop())

	batch, summary, err := p.Run(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, scraper.SourceStatic, summary.SelectorSource)
	assert.Len(t, batch, 2, "extraction proceeds with the default spec")
}

type failingFinder struct{}

func (failingFinder) IdentifySelectors(context.Context, string) (*scraper.SelectorCandidate, error) {
	return nil, errors.New("model timeout")
}
