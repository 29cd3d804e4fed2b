package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pianotechmtl/ptm-chat-backend/internal/analysis"
	"github.com/pianotechmtl/ptm-chat-backend/internal/history"
	"github.com/pianotechmtl/ptm-chat-backend/internal/providers"
	"github.com/pianotechmtl/ptm-chat-backend/internal/scraper"
)

// ErrChatFailed wraps failures of the chat provider itself, the only failure
// in the composed flow that reaches the client.
var ErrChatFailed = errors.New("chat responder failed")

// maxListingImages caps how many listing photos are re-analyzed during
// secondary enrichment.
const maxListingImages = 3

// ListingExtractor is the slice of the scraper the composer needs.
type ListingExtractor interface {
	Scrape(ctx context.Context, url string) (*scraper.Listing, error)
	DownloadImages(ctx context.Context, urls []string, max int) []scraper.ImageData
}

// Composer assembles the conversation context for each turn: listing
// enrichment, photo analysis, prior history, and the final message sequence
// for the chat provider.
type Composer struct {
	history      history.Store
	chat         providers.ChatResponder
	vision       providers.VisionAnalyzer
	listings     ListingExtractor
	systemPrompt string
	log          *logrus.Logger
}

// NewComposer wires the composer's collaborators. systemPrompt is the fixed
// persona block loaded once at startup.
func NewComposer(
	store history.Store,
	chat providers.ChatResponder,
	vision providers.VisionAnalyzer,
	listings ListingExtractor,
	systemPrompt string,
	log *logrus.Logger,
) *Composer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Composer{
		history:      store,
		chat:         chat,
		vision:       vision,
		listings:     listings,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// TurnInput is one inbound chat turn.
type TurnInput struct {
	SessionID string
	Message   string

	// Analysis is a client-supplied expertise result from an earlier turn.
	Analysis *analysis.Record

	// Images, when present, selects the direct-upload path: they go straight
	// to the vision provider and no URL enrichment happens this turn.
	Images []providers.Image

	// Notes overrides Message as the free text handed to the vision provider
	// on the upload path. Empty means use Message.
	Notes string
}

// TurnResult is the outcome of a completed turn.
type TurnResult struct {
	Reply string

	// Analysis is the resolved expertise result: client-supplied, freshly
	// computed, or nil.
	Analysis *analysis.Record
}

// Respond runs one chat turn end to end.
//
// Enrichment failures (unreachable listing, failed re-analysis of listing
// photos) degrade the context and never fail the turn. Only two errors reach
// the caller: a vision failure on the direct-upload path, and a chat
// provider failure (wrapped in ErrChatFailed).
func (c *Composer) Respond(ctx context.Context, in TurnInput) (*TurnResult, error) {
	resolved := in.Analysis
	var listingBlock string

	if len(in.Images) > 0 {
		notes := in.Notes
		if notes == "" {
			notes = in.Message
		}
		rec, err := c.vision.Analyze(ctx, in.Images, notes)
		if err != nil {
			return nil, fmt.Errorf("vision analysis: %w", err)
		}
		resolved = rec
	} else if link := scraper.FindURL(in.Message); link != "" {
		listing, err := c.listings.Scrape(ctx, link)
		if err != nil {
			c.log.WithError(err).WithField("url", link).Warn("listing fetch failed, degrading to fallback context")
			listingBlock = fallbackListingContext(link)
		} else {
			listingBlock = formatListingContext(listing)
			if len(listing.Images) > 0 && resolved == nil {
				resolved = c.analyzeListingImages(ctx, listing)
			}
		}
	}

	messages := make([]providers.Message, 0, history.MaxEntries+4)
	messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: c.systemPrompt})

	budget := providers.BudgetConversation
	if resolved != nil {
		messages = append(messages, providers.Message{
			Role:    providers.RoleSystem,
			Content: analysis.FormatContext(resolved),
		})
		budget = providers.BudgetWithAnalysis
	}
	if listingBlock != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: listingBlock})
	}
	for _, entry := range c.history.Get(in.SessionID) {
		messages = append(messages, providers.Message{Role: entry.Role, Content: entry.Content})
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: in.Message})

	reply, err := c.chat.Respond(ctx, messages, budget)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatFailed, err)
	}

	c.history.Append(in.SessionID,
		history.Entry{Role: history.RoleUser, Content: in.Message},
		history.Entry{Role: history.RoleAssistant, Content: reply},
	)

	return &TurnResult{Reply: reply, Analysis: resolved}, nil
}

// analyzeListingImages is the secondary enrichment path: download the
// listing's photos and run them through the vision provider. Best-effort
// from end to end; any failure just means the turn proceeds without an
// analysis.
func (c *Composer) analyzeListingImages(ctx context.Context, listing *scraper.Listing) *analysis.Record {
	downloaded := c.listings.DownloadImages(ctx, listing.Images, maxListingImages)
	if len(downloaded) == 0 {
		c.log.WithField("url", listing.URL).Debug("no listing image could be downloaded")
		return nil
	}

	images := make([]providers.Image, len(downloaded))
	for i, img := range downloaded {
		images[i] = providers.Image{Data: img.Data, MIMEType: img.MIMEType}
	}

	rec, err := c.vision.Analyze(ctx, images, listingNotes(listing))
	if err != nil {
		c.log.WithError(err).WithField("url", listing.URL).Warn("listing photo analysis failed, continuing without")
		return nil
	}
	return rec
}

// listingNotes synthesizes analyst notes from the listing so the vision
// model knows where the photos come from.
func listingNotes(listing *scraper.Listing) string {
	parts := []string{"Photos tirées d'une annonce en ligne."}
	if listing.Title != "" {
		parts = append(parts, "Titre : "+listing.Title)
	}
	if listing.Price != "" {
		parts = append(parts, "Prix demandé : "+listing.Price)
	}
	if listing.Description != "" {
		parts = append(parts, "Description : "+listing.Description)
	}
	return strings.Join(parts, "\n")
}

// formatListingContext renders a scraped listing into a system context
// block, skipping absent fields.
func formatListingContext(listing *scraper.Listing) string {
	source := listing.Source
	if source == "" {
		source = "web"
	}
	parts := []string{fmt.Sprintf("Le client a partagé une annonce (%s) :", source)}
	if listing.Title != "" {
		parts = append(parts, "Titre : "+listing.Title)
	}
	if listing.Price != "" {
		parts = append(parts, "Prix demandé : "+listing.Price)
	}
	if listing.Location != "" {
		parts = append(parts, "Emplacement : "+listing.Location)
	}
	if listing.Description != "" {
		parts = append(parts, "Description : "+listing.Description)
	}
	if len(listing.Images) > 0 {
		parts = append(parts, fmt.Sprintf("Photos dans l'annonce : %d", len(listing.Images)))
	}
	parts = append(parts, "Lien : "+listing.URL)
	return strings.Join(parts, "\n")
}

// fallbackListingContext is the minimal block used when the listing page
// could not be fetched: name the domain and the raw link, and steer the
// model toward asking for photos instead of inventing listing details.
func fallbackListingContext(rawURL string) string {
	domain := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		domain = parsed.Host
	}
	return fmt.Sprintf(
		"Le client a partagé un lien (%s) : %s\n"+
			"La page n'a pas pu être consultée : ne présume aucun détail de l'annonce.\n"+
			"Invite plutôt le client à envoyer des photos du piano pour une évaluation.",
		domain, rawURL)
}
