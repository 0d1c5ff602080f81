// Package newsharvest defines the article records produced by one scraping
// run and the derived title metrics attached to them.
package newsharvest

import (
	"errors"
	"net/url"
	"strings"
)

// Validation errors for article records.
var (
	ErrEmptyTitle     = errors.New("title is empty")
	ErrMissingLink    = errors.New("link is missing")
	ErrRelativeLink   = errors.New("link is not an absolute URL")
	ErrUnparsableLink = errors.New("link is not a parsable URL")
)

// ArticleRecord is one article extracted from the index page. Metrics are
// attached once after extraction; the record is treated as immutable from
// that point on.
type ArticleRecord struct {
	Title    string `json:"title"`
	Kicker   string `json:"kicker"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link"`
	ArticleMetrics
}

// ArticleMetrics holds the derived title metrics. The JSON keys match the
// columns of the warehouse table and the processed output files.
type ArticleMetrics struct {
	WordCount        int      `json:"title_word_count"`
	CharCount        int      `json:"title_char_count"`
	CapitalizedWords []string `json:"title_capital_words"`
}

// Batch is the ordered set of records produced by one run, in document
// order, capped at the configured maximum.
type Batch []ArticleRecord

// Validate checks the required-field contract: a non-empty title and an
// absolute, parsable link. Records failing validation are dropped by the
// extractor, never emitted partially.
func (a *ArticleRecord) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if a.LinkURL == "" {
		return ErrMissingLink
	}
	u, err := url.Parse(a.LinkURL)
	if err != nil {
		return ErrUnparsableLink
	}
	if !u.IsAbs() {
		return ErrRelativeLink
	}
	return nil
}

// Titles returns the batch titles in order. Convenience for logging and
// tests.
func (b Batch) Titles() []string {
	titles := make([]string, len(b))
	for i, rec := range b {
		titles[i] = rec.Title
	}
	return titles
}
