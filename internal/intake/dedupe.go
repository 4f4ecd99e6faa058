package intake

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeTitle applies NFKC, lowercases, and collapses whitespace.
func NormalizeTitle(title string) string {
	folded := lowerCaser.String(norm.NFKC.String(title))
	return strings.Join(strings.Fields(folded), " ")
}

// CanonicalURL reduces rawURL to lowercase host plus path, without scheme,
// query, fragment, a leading "www." or a trailing slash. Values that do not
// parse as absolute URLs are trimmed and lowercased.
func CanonicalURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimRight(trimmed, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	path := strings.TrimRight(parsed.EscapedPath(), "/")
	return host + path
}

// DedupeKey identifies the same story arriving from different fetches.
func DedupeKey(title, rawURL string) string {
	return NormalizeTitle(title) + "|" + CanonicalURL(rawURL)
}
