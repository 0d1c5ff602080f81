package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testSpec is a compact selector set for the fixture markup used in these
// tests.
func testSpec() SelectorSpec {
	return SelectorSpec{
		ArticleContainer: "div.item",
		Title:            "h2 a",
		Kicker:           "h5",
		Image:            "img",
		Link:             "h2 a",
	}
}

func snapshotFromHTML(t *testing.T, html, base string) *Snapshot {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	baseURL, err := url.Parse(base)
	require.NoError(t, err)
	return NewSnapshot(doc, baseURL, nil)
}

func articleHTML(title, kicker, img, href string) string {
	return fmt.Sprintf(`<div class="item">
		<h5>%s</h5>
		<h2><a href="%s">%s</a></h2>
		<img src="%s">
	</div>`, kicker, href, title, img)
}

// TestExtract_CompletePage verifies field extraction and document order
func TestExtract_CompletePage(t *testing.T) {
	html := "<body>" +
		articleHTML("First Article", "MARKETS", "/img/1.jpg", "/news/1") +
		articleHTML("Second Article", "REGULATION", "https://cdn.example.com/2.jpg", "https://example.com/news/2") +
		"</body>"
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 2)
	assert.Equal(t, 2, result.Attempted)
	assert.Zero(t, result.Dropped)

	first := result.Records[0]
	assert.Equal(t, "First Article", first.Title)
	assert.Equal(t, "MARKETS", first.Kicker)
	assert.Equal(t, "https://example.com/img/1.jpg", first.ImageURL, "relative image resolved against base URL")
	assert.Equal(t, "https://example.com/news/1", first.LinkURL, "relative link resolved against base URL")

	second := result.Records[1]
	assert.Equal(t, "Second Article", second.Title)
	assert.Equal(t, "https://cdn.example.com/2.jpg", second.ImageURL, "absolute image kept as-is")
	assert.Equal(t, "https://example.com/news/2", second.LinkURL)
}

// TestExtract_MaxArticlesCap verifies truncation and early stop
func TestExtract_MaxArticlesCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<body>")
	for i := 1; i <= 15; i++ {
		sb.WriteString(articleHTML(
			fmt.Sprintf("Article %d", i), "NEWS",
			fmt.Sprintf("/img/%d.jpg", i),
			fmt.Sprintf("/news/%d", i)))
	}
	sb.WriteString("</body>")
	snapshot := snapshotFromHTML(t, sb.String(), "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 10)
	assert.Equal(t, 10, result.Attempted, "containers past the cap are never visited")
	assert.Equal(t, "Article 1", result.Records[0].Title)
	assert.Equal(t, "Article 10", result.Records[9].Title)
}

// TestExtract_MissingTitleDropped verifies a title-less container is
// dropped without affecting siblings
func TestExtract_MissingTitleDropped(t *testing.T) {
	html := "<body>" +
		articleHTML("Good One", "NEWS", "/img/1.jpg", "/news/1") +
		articleHTML("   ", "NEWS", "/img/2.jpg", "/news/2") +
		articleHTML("Good Two", "NEWS", "/img/3.jpg", "/news/3") +
		"</body>"
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 2)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, []string{"Good One", "Good Two"}, []string{
		result.Records[0].Title, result.Records[1].Title,
	})
}

// TestExtract_MissingLinkDropped verifies a container without an href is
// dropped
func TestExtract_MissingLinkDropped(t *testing.T) {
	html := `<body>
	<div class="item"><h2><a>No Href Here</a></h2></div>
	` + articleHTML("Has Link", "NEWS", "/img/1.jpg", "/news/1") + `
	</body>`
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, "Has Link", result.Records[0].Title)
}

// TestExtract_OptionalFieldsEmpty verifies kicker and image degrade to
// empty strings
func TestExtract_OptionalFieldsEmpty(t *testing.T) {
	html := `<body>
	<div class="item"><h2><a href="/news/1">Title Only</a></h2></div>
	</body>`
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Title Only", result.Records[0].Title)
	assert.Empty(t, result.Records[0].Kicker)
	assert.Empty(t, result.Records[0].ImageURL)
	assert.Zero(t, result.Dropped)
}

// TestExtract_DuplicatesKept verifies duplicate containers are not
// deduplicated
func TestExtract_DuplicatesKept(t *testing.T) {
	article := articleHTML("Same Story", "NEWS", "/img/1.jpg", "/news/1")
	snapshot := snapshotFromHTML(t, "<body>"+article+article+"</body>", "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 2)
	assert.Equal(t, result.Records[0], result.Records[1])
}

// TestExtract_ScopedToContainer verifies sub-selectors never leak into
// sibling containers
func TestExtract_ScopedToContainer(t *testing.T) {
	html := `<body>
	` + articleHTML("Own Title", "OWN KICKER", "/img/1.jpg", "/news/1") + `
	<div class="item">
		<h2><a href="/news/2">Second Title</a></h2>
	</div>
	</body>`
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 2)
	assert.Equal(t, "OWN KICKER", result.Records[0].Kicker)
	assert.Empty(t, result.Records[1].Kicker, "second container must not inherit the first's kicker")
	assert.Empty(t, result.Records[1].ImageURL)
}

// TestExtract_TitleWhitespaceNormalized verifies whitespace collapsing
func TestExtract_TitleWhitespaceNormalized(t *testing.T) {
	html := `<body>
	<div class="item"><h2><a href="/news/1">  Multi
		line    title  </a></h2></div>
	</body>`
	snapshot := snapshotFromHTML(t, html, "https://example.com")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, testSpec())

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Multi line title", result.Records[0].Title)
}

// TestExtract_DefaultSpecMarkup verifies extraction against the static
// selector set's markup shape
func TestExtract_DefaultSpecMarkup(t *testing.T) {
	html := `<body>
	<div class="slot noticia">
		<div class="volanta">INDUSTRY</div>
		<h2 class="titulo"><a href="/noticia/99">Operator Expands</a></h2>
		<div class="imagen"><img src="/fotos/99.jpg"></div>
	</div>
	</body>`
	snapshot := snapshotFromHTML(t, html, "https://www.yogonet.com/international/")

	result := NewExtractor(10, zap.NewNop()).Extract(snapshot, DefaultSpec())

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "Operator Expands", rec.Title)
	assert.Equal(t, "INDUSTRY", rec.Kicker)
	assert.Equal(t, "https://www.yogonet.com/noticia/99", rec.LinkURL)
	assert.Equal(t, "https://www.yogonet.com/fotos/99.jpg", rec.ImageURL)
}
