package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// ErrUnreachable signals that the listing page could not be fetched or
// parsed. Callers treat it as a recoverable degradation, not an error to
// surface.
var ErrUnreachable = errors.New("listing page unreachable")

const (
	fetchTimeout = 15 * time.Second
	maxRedirects = 10

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
	acceptLanguage = "fr-CA,fr;q=0.9,en;q=0.8"
)

// Extractor fetches classified-ad pages and their photos.
type Extractor struct {
	client *http.Client
	log    *logrus.Logger
}

// NewExtractor creates an Extractor with the default HTTP client settings.
func NewExtractor(log *logrus.Logger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{
		client: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		log: log,
	}
}

// Scrape fetches url and extracts a Listing with the strategy matching its
// domain. Network failures, non-2xx statuses and unparseable bodies all
// come back as ErrUnreachable.
func (e *Extractor) Scrape(ctx context.Context, url string) (*Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	listing := strategyFor(url).Extract(doc, url)
	e.log.WithFields(logrus.Fields{
		"source": listing.Source,
		"title":  listing.Title != "",
		"images": len(listing.Images),
	}).Debug("scraped listing")
	return listing, nil
}
