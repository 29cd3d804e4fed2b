package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianotechmtl/ptm-chat-backend/internal/analysis"
	"github.com/pianotechmtl/ptm-chat-backend/internal/history"
	"github.com/pianotechmtl/ptm-chat-backend/internal/providers"
	"github.com/pianotechmtl/ptm-chat-backend/internal/scraper"
)

type fakeChat struct {
	reply string
	err   error

	calls    int
	messages [][]providers.Message
	budgets  []providers.ReplyBudget
}

func (f *fakeChat) Respond(_ context.Context, messages []providers.Message, budget providers.ReplyBudget) (string, error) {
	f.calls++
	f.messages = append(f.messages, messages)
	f.budgets = append(f.budgets, budget)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeVision struct {
	rec *analysis.Record
	err error

	calls  int
	notes  []string
	images [][]providers.Image
}

func (f *fakeVision) Analyze(_ context.Context, images []providers.Image, notes string) (*analysis.Record, error) {
	f.calls++
	f.notes = append(f.notes, notes)
	f.images = append(f.images, images)
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

type fakeListings struct {
	listing   *scraper.Listing
	scrapeErr error
	images    []scraper.ImageData

	scrapeCalls   int
	scrapedURLs   []string
	downloadCalls int
}

func (f *fakeListings) Scrape(_ context.Context, url string) (*scraper.Listing, error) {
	f.scrapeCalls++
	f.scrapedURLs = append(f.scrapedURLs, url)
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return f.listing, nil
}

func (f *fakeListings) DownloadImages(_ context.Context, urls []string, max int) []scraper.ImageData {
	f.downloadCalls++
	return f.images
}

const testPrompt = "Tu es l'assistant de test."

func newTestComposer(chat *fakeChat, vision *fakeVision, listings *fakeListings) (*Composer, history.Store) {
	store := history.NewMemoryStore(0)
	return NewComposer(store, chat, vision, listings, testPrompt, nil), store
}

func lastMessages(t *testing.T, chat *fakeChat) []providers.Message {
	t.Helper()
	require.NotEmpty(t, chat.messages)
	return chat.messages[len(chat.messages)-1]
}

func TestRespond_PlainMessageHasNoEnrichment(t *testing.T) {
	chat := &fakeChat{reply: "Bonjour!"}
	vision := &fakeVision{}
	listings := &fakeListings{}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "Combien coûte un accord de piano?",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", result.Reply)
	assert.Nil(t, result.Analysis)
	assert.Zero(t, listings.scrapeCalls)
	assert.Zero(t, vision.calls)

	messages := lastMessages(t, chat)
	require.Len(t, messages, 2)
	assert.Equal(t, providers.RoleSystem, messages[0].Role)
	assert.Equal(t, testPrompt, messages[0].Content)
	assert.Equal(t, providers.RoleUser, messages[1].Role)
	assert.Equal(t, providers.BudgetConversation, chat.budgets[0])
}

func TestRespond_UnreachableListingDegradesToFallback(t *testing.T) {
	chat := &fakeChat{reply: "Je n'ai pas pu consulter l'annonce."}
	vision := &fakeVision{}
	listings := &fakeListings{scrapeErr: scraper.ErrUnreachable}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "Regarde https://kijiji.ca/v-piano/123 svp",
	})

	require.NoError(t, err, "scrape failure must not fail the turn")
	assert.NotEmpty(t, result.Reply)
	assert.Equal(t, 1, listings.scrapeCalls)
	assert.Zero(t, vision.calls)

	messages := lastMessages(t, chat)
	require.Len(t, messages, 3)
	fallback := messages[1].Content
	assert.Contains(t, fallback, "kijiji.ca")
	assert.Contains(t, fallback, "https://kijiji.ca/v-piano/123")
	assert.Contains(t, fallback, "photos")
}

func TestRespond_ListingWithImagesTriggersSecondaryAnalysis(t *testing.T) {
	rec := &analysis.Record{Verdict: "bon achat", CommentaireExpert: "Bon piano d'étude."}
	chat := &fakeChat{reply: "Cette annonce semble intéressante."}
	vision := &fakeVision{rec: rec}
	listings := &fakeListings{
		listing: &scraper.Listing{
			Source: "Kijiji",
			URL:    "https://kijiji.ca/v-piano/123",
			Title:  "Piano Yamaha",
			Price:  "800$",
			Images: []string{"https://img.example.com/1.jpg"},
		},
		images: []scraper.ImageData{{Data: []byte("img"), MIMEType: "image/jpeg"}},
	}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "Check this https://kijiji.ca/v-piano/123 please",
	})

	require.NoError(t, err)
	assert.Equal(t, rec, result.Analysis)
	assert.Equal(t, 1, vision.calls)
	assert.Equal(t, 1, listings.downloadCalls)
	assert.Contains(t, vision.notes[0], "Piano Yamaha")
	assert.Contains(t, vision.notes[0], "800$")

	// Exact assembly order: persona, analysis block, listing block, user turn.
	messages := lastMessages(t, chat)
	require.Len(t, messages, 4)
	assert.Equal(t, testPrompt, messages[0].Content)
	assert.Contains(t, messages[1].Content, "Résultat d'expertise IA")
	assert.Contains(t, messages[2].Content, "Le client a partagé une annonce (Kijiji)")
	assert.Contains(t, messages[2].Content, "Titre : Piano Yamaha")
	assert.Equal(t, providers.RoleUser, messages[3].Role)
	assert.Equal(t, providers.BudgetWithAnalysis, chat.budgets[0])
}

func TestRespond_ClientAnalysisSkipsSecondaryAnalysis(t *testing.T) {
	supplied := &analysis.Record{Verdict: "déjà évalué"}
	chat := &fakeChat{reply: "ok"}
	vision := &fakeVision{rec: &analysis.Record{Verdict: "ne doit pas servir"}}
	listings := &fakeListings{
		listing: &scraper.Listing{
			Source: "Kijiji",
			URL:    "https://kijiji.ca/v-piano/123",
			Images: []string{"https://img.example.com/1.jpg"},
		},
		images: []scraper.ImageData{{Data: []byte("img"), MIMEType: "image/jpeg"}},
	}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "et ça https://kijiji.ca/v-piano/123 ?",
		Analysis:  supplied,
	})

	require.NoError(t, err)
	assert.Zero(t, vision.calls, "no re-analysis when the client already supplied one")
	assert.Zero(t, listings.downloadCalls)
	assert.Equal(t, supplied, result.Analysis)
}

func TestRespond_SecondaryAnalysisFailureIsSwallowed(t *testing.T) {
	chat := &fakeChat{reply: "voici l'annonce"}
	vision := &fakeVision{err: providers.ErrContentRejected}
	listings := &fakeListings{
		listing: &scraper.Listing{
			Source: "Kijiji",
			URL:    "https://kijiji.ca/v-piano/123",
			Images: []string{"https://img.example.com/1.jpg"},
		},
		images: []scraper.ImageData{{Data: []byte("img"), MIMEType: "image/jpeg"}},
	}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "voir https://kijiji.ca/v-piano/123",
	})

	require.NoError(t, err)
	assert.Nil(t, result.Analysis)
	assert.Equal(t, 1, vision.calls)
	// The listing block still made it into the prompt.
	messages := lastMessages(t, chat)
	require.Len(t, messages, 3)
	assert.Contains(t, messages[1].Content, "annonce (Kijiji)")
}

func TestRespond_NoDownloadableImageSkipsAnalysis(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	vision := &fakeVision{}
	listings := &fakeListings{
		listing: &scraper.Listing{
			Source: "annonce",
			URL:    "https://example.com/a",
			Images: []string{"https://img.example.com/broken.jpg"},
		},
	}
	composer, _ := newTestComposer(chat, vision, listings)

	_, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "voir https://example.com/a",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, listings.downloadCalls)
	assert.Zero(t, vision.calls)
}

func TestRespond_UploadPathBypassesURLScan(t *testing.T) {
	rec := &analysis.Record{Verdict: "à inspecter"}
	chat := &fakeChat{reply: "Merci pour les photos."}
	vision := &fakeVision{rec: rec}
	listings := &fakeListings{}
	composer, _ := newTestComposer(chat, vision, listings)

	result, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "Photos du piano de https://kijiji.ca/v-piano/123",
		Images:    []providers.Image{{Data: []byte("img"), MIMEType: "image/png"}},
	})

	require.NoError(t, err)
	assert.Equal(t, rec, result.Analysis)
	assert.Equal(t, 1, vision.calls)
	assert.Zero(t, listings.scrapeCalls, "upload path never scans for URLs")
	assert.Equal(t, providers.BudgetWithAnalysis, chat.budgets[0])
}

func TestRespond_UploadPathUsesNotesOverMessage(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	vision := &fakeVision{rec: &analysis.Record{}}
	composer, _ := newTestComposer(chat, vision, &fakeListings{})

	_, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "Voici mon piano",
		Notes:     "Voici mon piano\nNom du client : Luc",
		Images:    []providers.Image{{Data: []byte("img"), MIMEType: "image/jpeg"}},
	})

	require.NoError(t, err)
	assert.Contains(t, vision.notes[0], "Nom du client : Luc")
	// The conversation turn itself stays the plain message.
	messages := lastMessages(t, chat)
	assert.Equal(t, "Voici mon piano", messages[len(messages)-1].Content)
}

func TestRespond_UploadPathSurfacesVisionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"content rejected", providers.ErrContentRejected},
		{"empty response", providers.ErrEmptyResponse},
		{"transport", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{reply: "ne doit pas être appelé"}
			vision := &fakeVision{err: tt.err}
			composer, store := newTestComposer(chat, vision, &fakeListings{})

			_, err := composer.Respond(context.Background(), TurnInput{
				SessionID: "s1",
				Message:   "analyse ça",
				Images:    []providers.Image{{Data: []byte("img"), MIMEType: "image/jpeg"}},
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, chat.calls)
			assert.Empty(t, store.Get("s1"), "failed turns leave no history")
		})
	}
}

func TestRespond_ChatFailurePropagatesAndSkipsHistory(t *testing.T) {
	chat := &fakeChat{err: errors.New("upstream 500")}
	composer, store := newTestComposer(chat, &fakeVision{}, &fakeListings{})

	_, err := composer.Respond(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "bonjour",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChatFailed)
	assert.Empty(t, store.Get("s1"))
}

func TestRespond_HistoryFlowsIntoNextTurn(t *testing.T) {
	chat := &fakeChat{reply: "réponse"}
	composer, store := newTestComposer(chat, &fakeVision{}, &fakeListings{})

	_, err := composer.Respond(context.Background(), TurnInput{SessionID: "s1", Message: "premier"})
	require.NoError(t, err)
	_, err = composer.Respond(context.Background(), TurnInput{SessionID: "s1", Message: "deuxième"})
	require.NoError(t, err)

	entries := store.Get("s1")
	require.Len(t, entries, 4)
	assert.Equal(t, "premier", entries[0].Content)
	assert.Equal(t, "réponse", entries[1].Content)
	assert.Equal(t, "deuxième", entries[2].Content)

	// Second call saw the first exchange between persona and the new turn.
	messages := chat.messages[1]
	require.Len(t, messages, 4)
	assert.Equal(t, "premier", messages[1].Content)
	assert.Equal(t, providers.RoleUser, messages[1].Role)
	assert.Equal(t, "réponse", messages[2].Content)
	assert.Equal(t, providers.RoleAssistant, messages[2].Role)
	assert.Equal(t, "deuxième", messages[3].Content)
}

func TestRespond_SessionsDoNotShareHistory(t *testing.T) {
	chat := &fakeChat{reply: "r"}
	composer, _ := newTestComposer(chat, &fakeVision{}, &fakeListings{})

	_, err := composer.Respond(context.Background(), TurnInput{SessionID: "a", Message: "dans a"})
	require.NoError(t, err)
	_, err = composer.Respond(context.Background(), TurnInput{SessionID: "b", Message: "dans b"})
	require.NoError(t, err)

	messages := chat.messages[1]
	require.Len(t, messages, 2, "session b must not see session a's history")
}

func TestLoadSystemPrompt_MissingFileUsesDefault(t *testing.T) {
	prompt := LoadSystemPrompt("/nonexistent/prompt.txt")

	assert.Contains(t, prompt, "Piano Technique Montréal")
}
