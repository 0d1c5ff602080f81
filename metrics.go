package newsharvest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ComputeMetrics derives all title metrics for a record. Pure and
// idempotent: the same title always yields the same metrics.
func ComputeMetrics(title string) ArticleMetrics {
	return ArticleMetrics{
		WordCount:        WordCount(title),
		CharCount:        CharCount(title),
		CapitalizedWords: CapitalizedWords(title),
	}
}

// WordCount counts whitespace-delimited tokens in the title.
func WordCount(title string) int {
	return len(strings.Fields(title))
}

// CharCount counts Unicode code points in the title, not bytes and not
// grapheme clusters. "Año" counts as 3.
func CharCount(title string) int {
	return utf8.RuneCountInString(title)
}

// CapitalizedWords returns the tokens whose first rune is an uppercase
// letter, in left-to-right order. Tokenization is the same as WordCount,
// so punctuation stays attached to its token ("Breaking:" qualifies).
// Duplicates are preserved.
func CapitalizedWords(title string) []string {
	words := []string{}
	for _, tok := range strings.Fields(title) {
		r, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsUpper(r) {
			words = append(words, tok)
		}
	}
	return words
}
