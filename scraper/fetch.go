package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSampleLimit bounds the markup excerpt handed to the AI selector
// discovery call, to keep the prompt payload small.
const DefaultSampleLimit = 10000

// Snapshot is one fetched, parsed page. It is owned by the run that
// fetched it and must be closed on every exit path.
type Snapshot struct {
	doc     *goquery.Document
	baseURL *url.URL
	closeFn func() error
}

// NewSnapshot builds a snapshot from an already-parsed document. closeFn
// releases whatever session or connection backs the document; it may be
// nil.
func NewSnapshot(doc *goquery.Document, baseURL *url.URL, closeFn func() error) *Snapshot {
	return &Snapshot{doc: doc, baseURL: baseURL, closeFn: closeFn}
}

// Document returns the full parsed markup for extraction.
func (s *Snapshot) Document() *goquery.Document {
	return s.doc
}

// BaseURL returns the page's base URL, used to resolve relative links.
func (s *Snapshot) BaseURL() *url.URL {
	return s.baseURL
}

// MarkupSample returns a bounded excerpt of the page body's markup for
// selector discovery. Truncation is by byte; the sample only needs to be
// representative, not well formed.
func (s *Snapshot) MarkupSample(limit int) string {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	body, err := s.doc.Find("body").Html()
	if err != nil || body == "" {
		if body, err = s.doc.Html(); err != nil {
			return ""
		}
	}
	if len(body) > limit {
		body = body[:limit]
	}
	return body
}

// Close releases the resources backing the snapshot.
func (s *Snapshot) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Fetcher retrieves a rendered page snapshot. A fetch failure is the only
// failure that aborts a run.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Snapshot, error)
}

// HTTPFetcher fetches pages over plain HTTP and parses them with goquery.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "newsharvest/1.0 (news index extraction)",
	}
}

// Fetch retrieves and parses the page at pageURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Snapshot, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return NewSnapshot(doc, base, nil), nil
}
