package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Source identifies how a selector spec was resolved.
type Source string

const (
	// SourceStatic means the default selector set was used.
	SourceStatic Source = "static"
	// SourceAI means the selectors were discovered by the AI collaborator.
	SourceAI Source = "ai_assisted"
)

// SelectorCandidate is the untrusted payload returned by the AI discovery
// collaborator. It is validated into a SelectorSpec before use; any
// missing or empty key triggers fallback rather than partial trust.
type SelectorCandidate struct {
	ArticleSelector string  `json:"article_selector"`
	TitleSelector   string  `json:"title_selector"`
	KickerSelector  string  `json:"kicker_selector"`
	ImageSelector   string  `json:"image_selector"`
	LinkSelector    string  `json:"link_selector"`
	Confidence      float64 `json:"confidence"`
}

// Spec converts the candidate to a selector spec. Callers validate the
// result before using it for extraction.
func (c *SelectorCandidate) Spec() SelectorSpec {
	return SelectorSpec{
		ArticleContainer: c.ArticleSelector,
		Title:            c.TitleSelector,
		Kicker:           c.KickerSelector,
		Image:            c.ImageSelector,
		Link:             c.LinkSelector,
	}
}

// SelectorFinder is the AI selector-discovery collaborator. markupSample
// is a bounded excerpt of the page's structural markup.
type SelectorFinder interface {
	IdentifySelectors(ctx context.Context, markupSample string) (*SelectorCandidate, error)
}

// Resolution is the outcome of selector resolution for one run. Immutable
// after creation; a run never re-resolves mid-flight.
type Resolution struct {
	Source     Source
	Spec       SelectorSpec
	Confidence float64
}

// ResolverConfig controls the adaptive resolution path.
type ResolverConfig struct {
	AIEnabled  bool
	APITimeout time.Duration
}

// Resolver produces the selector spec for a run. It holds no state across
// runs.
type Resolver struct {
	finder SelectorFinder
	cfg    ResolverConfig
	logger *zap.Logger
}

// NewResolver creates a resolver. finder may be nil when AI resolution is
// disabled.
func NewResolver(finder SelectorFinder, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{finder: finder, cfg: cfg, logger: logger}
}

// Resolve returns the selector spec to use for this run. When AI
// resolution is enabled it asks the discovery collaborator, bounded by the
// configured timeout; on any failure (timeout, transport error, malformed
// or incomplete candidate) it falls back to the static default set. The
// fallback never surfaces as an error: selector brittleness must not block
// a run that can still make progress with the known-good defaults.
func (r *Resolver) Resolve(ctx context.Context, markupSample string) Resolution {
	static := Resolution{Source: SourceStatic, Spec: DefaultSpec()}

	if !r.cfg.AIEnabled || r.finder == nil {
		return static
	}

	if r.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.APITimeout)
		defer cancel()
	}

	candidate, err := r.finder.IdentifySelectors(ctx, markupSample)
	if err != nil {
		r.logger.Warn("selector discovery failed, using static selectors",
			zap.Error(err))
		return static
	}

	spec := candidate.Spec()
	if err := spec.Validate(); err != nil {
		r.logger.Warn("discovered selectors incomplete, using static selectors",
			zap.Error(err))
		return static
	}

	r.logger.Info("using AI-discovered selectors",
		zap.String("container", spec.ArticleContainer),
		zap.Float64("confidence", candidate.Confidence))
	return Resolution{Source: SourceAI, Spec: spec, Confidence: candidate.Confidence}
}
