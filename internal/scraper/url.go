package scraper

import "regexp"

// urlPattern matches an http/https URL token: the scheme followed by any run
// of characters that cannot terminate a URL inside prose (whitespace, angle
// brackets, quotes).
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)

// FindURL returns the first URL found in text, or "" when there is none.
func FindURL(text string) string {
	return urlPattern.FindString(text)
}
