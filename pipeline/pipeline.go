// Package pipeline orchestrates one extraction run: fetch the index page,
// resolve selectors, extract records, attach metrics, and hand the batch
// to the configured sinks. Each invocation is a single bounded batch job;
// there is no scheduler and no overlap between runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsharvest"
	"newsharvest/scraper"
)

// Status of a completed run.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Summary is the per-run result record, independent of the persisted
// article data.
type Summary struct {
	RunID          uuid.UUID      `json:"run_id"`
	URL            string         `json:"url"`
	Status         string         `json:"status"`
	Attempted      int            `json:"attempted"`
	Extracted      int            `json:"extracted"`
	Dropped        int            `json:"dropped"`
	SelectorSource scraper.Source `json:"selector_source"`
	SinkErrors     int            `json:"sink_errors"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// Sink receives the completed batch exactly once per successful run. Sink
// failures are logged and counted in the summary but never abort the run;
// retry policy belongs to the sink itself.
type Sink interface {
	Name() string
	Write(ctx context.Context, batch newsharvest.Batch, summary *Summary) error
}

// Pipeline wires the fetch, resolution, and extraction stages together.
type Pipeline struct {
	fetcher   scraper.Fetcher
	resolver  *scraper.Resolver
	extractor *scraper.Extractor
	sinks     []Sink
	logger    *zap.Logger
}

// New creates a pipeline. Sinks may be empty; the run summary is still
// produced.
func New(fetcher scraper.Fetcher, resolver *scraper.Resolver, extractor *scraper.Extractor, sinks []Sink, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:   fetcher,
		resolver:  resolver,
		extractor: extractor,
		sinks:     sinks,
		logger:    logger,
	}
}

// Run executes one extraction run against pageURL. A fetch failure is
// fatal: no batch is emitted and the error is returned alongside a failed
// summary. Every other failure mode degrades and is reflected in the
// summary counters. The page snapshot never outlives the run.
func (p *Pipeline) Run(ctx context.Context, pageURL string) (newsharvest.Batch, *Summary, error) {
	summary := &Summary{
		RunID:     uuid.New(),
		URL:       pageURL,
		StartedAt: time.Now(),
	}

	snapshot, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		summary.Status = StatusFailed
		summary.FinishedAt = time.Now()
		return nil, summary, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer snapshot.Close()

	resolution := p.resolver.Resolve(ctx, snapshot.MarkupSample(scraper.DefaultSampleLimit))
	summary.SelectorSource = resolution.Source

	result := p.extractor.Extract(snapshot, resolution.Spec)
	summary.Attempted = result.Attempted
	summary.Dropped = result.Dropped

	batch := result.Records
	for i := range batch {
		batch[i].ArticleMetrics = newsharvest.ComputeMetrics(batch[i].Title)
	}
	summary.Extracted = len(batch)

	p.logger.Info("extraction complete",
		zap.Stringer("run_id", summary.RunID),
		zap.Int("attempted", summary.Attempted),
		zap.Int("extracted", summary.Extracted),
		zap.Int("dropped", summary.Dropped),
		zap.String("selector_source", string(summary.SelectorSource)))

	for _, sink := range p.sinks {
		if err := sink.Write(ctx, batch, summary); err != nil {
			summary.SinkErrors++
			p.logger.Error("sink write failed",
				zap.String("sink", sink.Name()),
				zap.Error(err))
		}
	}

	summary.Status = StatusOK
	summary.FinishedAt = time.Now()
	return batch, summary, nil
}
