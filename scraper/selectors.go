// Package scraper locates and extracts article listings from a rendered
// news index page. Selector resolution is either static (a known-good
// default set) or AI-assisted with a deterministic fallback to the static
// set.
package scraper

import "errors"

// Selector validation errors.
var (
	ErrMissingContainerSelector = errors.New("article container selector is required")
	ErrMissingTitleSelector     = errors.New("title selector is required")
	ErrMissingKickerSelector    = errors.New("kicker selector is required")
	ErrMissingImageSelector     = errors.New("image selector is required")
	ErrMissingLinkSelector      = errors.New("link selector is required")
)

// SelectorSpec maps each logical article field to a CSS selector. The
// container selector locates one article entry; the field selectors are
// applied scoped to that container.
type SelectorSpec struct {
	ArticleContainer string `json:"article_selector" yaml:"article_container"`
	Title            string `json:"title_selector" yaml:"title"`
	Kicker           string `json:"kicker_selector" yaml:"kicker"`
	Image            string `json:"image_selector" yaml:"image"`
	Link             string `json:"link_selector" yaml:"link"`
}

// DefaultSpec returns the known-good selector set for the target index
// page. Used directly when AI resolution is disabled and as the fallback
// when it fails.
func DefaultSpec() SelectorSpec {
	return SelectorSpec{
		ArticleContainer: "div.slot.noticia",
		Title:            "h2.titulo a",
		Kicker:           "div.volanta",
		Image:            "div.imagen img",
		Link:             "h2.titulo a",
	}
}

// Validate checks that every field has a selector. A spec failing this
// check must not be used for extraction.
func (s SelectorSpec) Validate() error {
	if s.ArticleContainer == "" {
		return ErrMissingContainerSelector
	}
	if s.Title == "" {
		return ErrMissingTitleSelector
	}
	if s.Kicker == "" {
		return ErrMissingKickerSelector
	}
	if s.Image == "" {
		return ErrMissingImageSelector
	}
	if s.Link == "" {
		return ErrMissingLinkSelector
	}
	return nil
}
