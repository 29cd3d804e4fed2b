package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	priceRe    = regexp.MustCompile(`\d[\d\s,.]*\s*\$`)
	locationRe = regexp.MustCompile(`(?i)(Montréal|Montreal|Laval|Longueuil|Québec|Quebec)`)
)

// kijijiStrategy extracts Kijiji listing pages, which carry structured
// itemprop attributes in addition to the OpenGraph tags.
type kijijiStrategy struct{}

func (kijijiStrategy) Match(url string) bool {
	return strings.Contains(strings.ToLower(url), "kijiji.ca")
}

func (kijijiStrategy) Extract(doc *goquery.Document, url string) *Listing {
	listing := &Listing{Source: "Kijiji", URL: url}

	listing.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if listing.Title == "" {
		listing.Title = metaProperty(doc, "og:title")
	}

	listing.Price = kijijiPrice(doc)
	listing.Description = truncateDescription(kijijiDescription(doc))
	listing.Location = kijijiLocation(doc)
	listing.Images = ogImages(doc)

	return listing
}

func kijijiPrice(doc *goquery.Document) string {
	if price, ok := doc.Find(`[itemprop="price"]`).First().Attr("content"); ok && price != "" {
		return strings.TrimSpace(price)
	}
	if text := strings.TrimSpace(doc.Find(`[itemprop="price"]`).First().Text()); text != "" {
		return text
	}
	// Last resort: any span whose text looks like a dollar amount.
	var found string
	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if priceRe.MatchString(text) && len(text) < 40 {
			found = priceRe.FindString(text)
			return false
		}
		return true
	})
	return strings.TrimSpace(found)
}

func kijijiDescription(doc *goquery.Document) string {
	if desc := strings.TrimSpace(doc.Find(`div[itemprop="description"]`).First().Text()); desc != "" {
		return desc
	}
	if desc := strings.TrimSpace(doc.Find(`div[class*="description"]`).First().Text()); desc != "" {
		return desc
	}
	return metaProperty(doc, "og:description")
}

func kijijiLocation(doc *goquery.Document) string {
	if loc := strings.TrimSpace(doc.Find(`[itemprop="address"]`).First().Text()); loc != "" {
		return loc
	}
	var found string
	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if locationRe.MatchString(text) && len(text) < 60 {
			found = text
			return false
		}
		return true
	})
	return found
}
