package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// genericStrategy handles any page by sniffing OpenGraph and standard meta
// attributes. It is the fallback when no site-specific strategy matches.
type genericStrategy struct{}

func (genericStrategy) Match(string) bool { return true }

func (genericStrategy) Extract(doc *goquery.Document, url string) *Listing {
	return extractGeneric(doc, url)
}

func extractGeneric(doc *goquery.Document, url string) *Listing {
	listing := &Listing{Source: "annonce", URL: url}

	listing.Title = metaProperty(doc, "og:title")
	if listing.Title == "" {
		listing.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if amount := metaProperty(doc, "product:price:amount"); amount != "" {
		currency := metaProperty(doc, "product:price:currency")
		listing.Price = strings.TrimSpace(amount + " " + currency)
	}

	desc := metaProperty(doc, "og:description")
	if desc == "" {
		desc, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	}
	listing.Description = truncateDescription(strings.TrimSpace(desc))

	listing.Images = ogImages(doc)
	return listing
}

func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

// ogImages collects og:image URLs in document order.
func ogImages(doc *goquery.Document) []string {
	var images []string
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
			images = append(images, strings.TrimSpace(content))
		}
	})
	return images
}
