package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"newsharvest"
)

// Result is the outcome of extracting one page: the validated records in
// document order, how many containers were visited, and how many were
// dropped for failing required-field validation. Dropped counts feed the
// run summary; they never trigger retries.
type Result struct {
	Records   newsharvest.Batch
	Attempted int
	Dropped   int
}

// Extractor turns a page snapshot and a selector spec into a batch of
// validated article records.
type Extractor struct {
	maxArticles int
	logger      *zap.Logger
}

// NewExtractor creates an extractor that accumulates at most maxArticles
// valid records per page.
func NewExtractor(maxArticles int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{maxArticles: maxArticles, logger: logger}
}

// Extract walks the containers matching spec.ArticleContainer in document
// order and reads each field with a selector scoped to that container.
// Extraction per container is independent: one bad container drops only
// its own record. Extraction stops as soon as the cap is reached;
// remaining containers are not visited. Duplicate containers are not
// deduplicated.
func (e *Extractor) Extract(snapshot *Snapshot, spec SelectorSpec) *Result {
	result := &Result{Records: newsharvest.Batch{}}
	doc := snapshot.Document()
	base := snapshot.BaseURL()

	doc.Find(spec.ArticleContainer).EachWithBreak(func(i int, container *goquery.Selection) bool {
		result.Attempted++

		rec, err := e.extractOne(container, spec, base)
		if err != nil {
			result.Dropped++
			e.logger.Debug("dropped article container",
				zap.Int("index", i),
				zap.Error(err))
			return true
		}

		result.Records = append(result.Records, *rec)
		return len(result.Records) < e.maxArticles
	})

	return result
}

// extractOne reads a single container. Title and link are required;
// kicker and image are optional and default to empty strings.
func (e *Extractor) extractOne(container *goquery.Selection, spec SelectorSpec, base *url.URL) (*newsharvest.ArticleRecord, error) {
	rec := &newsharvest.ArticleRecord{
		Title:  normalizeText(container.Find(spec.Title).First().Text()),
		Kicker: normalizeText(container.Find(spec.Kicker).First().Text()),
	}

	if href, ok := container.Find(spec.Link).First().Attr("href"); ok {
		link, err := resolveURL(base, href)
		if err != nil {
			return nil, newsharvest.ErrUnparsableLink
		}
		rec.LinkURL = link
	}

	if src, ok := container.Find(spec.Image).First().Attr("src"); ok {
		// Image is optional: an unparsable src degrades to empty rather
		// than dropping the record.
		if img, err := resolveURL(base, src); err == nil {
			rec.ImageURL = img
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// normalizeText trims and collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL resolves a possibly-relative reference against the page base
// URL and returns the absolute form.
func resolveURL(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String(), nil
}
