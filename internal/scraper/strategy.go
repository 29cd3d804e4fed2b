package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts a Listing from a parsed page. One variant exists per
// supported site plus a generic fallback; selection is purely by URL
// substring, before the page is even fetched.
type Strategy interface {
	// Match reports whether this strategy handles the given URL.
	Match(url string) bool
	// Extract pulls listing fields out of the document. It returns partial
	// data rather than failing when the page does not look like a listing.
	Extract(doc *goquery.Document, url string) *Listing
}

// siteStrategy labels a known classified-ad site but extracts with the
// generic heuristics. The sites below all expose their data through
// OpenGraph meta tags well enough that no bespoke selectors are needed.
type siteStrategy struct {
	source  string
	domains []string
}

func (s siteStrategy) Match(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range s.domains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func (s siteStrategy) Extract(doc *goquery.Document, url string) *Listing {
	listing := extractGeneric(doc, url)
	listing.Source = s.source
	return listing
}

var strategies = []Strategy{
	kijijiStrategy{},
	siteStrategy{
		source:  "Facebook Marketplace",
		domains: []string{"facebook.com/marketplace", "marketplace.facebook.com"},
	},
	siteStrategy{source: "LesPAC", domains: []string{"lespac.com"}},
	siteStrategy{source: "Craigslist", domains: []string{"craigslist.org"}},
}

// strategyFor picks the extraction strategy for a URL, falling back to the
// generic variant for unknown sites.
func strategyFor(url string) Strategy {
	for _, s := range strategies {
		if s.Match(url) {
			return s
		}
	}
	return genericStrategy{}
}
