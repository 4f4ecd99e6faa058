package intake

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxSnippetRunes bounds the stored snippet.
const MaxSnippetRunes = 500

const blockElements = "p, div, br, li, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote"

// CleanSnippet returns the visible text of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func CleanSnippet(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	text := raw
	if strings.ContainsAny(raw, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			doc.Find("script, style, noscript").Remove()
			doc.Find(blockElements).AfterHtml(" ")
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > MaxSnippetRunes {
		text = strings.TrimSpace(string(runes[:MaxSnippetRunes])) + "…"
	}
	return text
}
