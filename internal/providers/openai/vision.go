package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pianotechmtl/ptm-chat-backend/internal/analysis"
	"github.com/pianotechmtl/ptm-chat-backend/internal/providers"
)

// Image transfer plus analysis is the slowest external call this service
// makes, so its timeout is much longer than the chat one.
const visionTimeout = 120 * time.Second

const visionMaxTokens = 1500

// visionSystemPrompt asks for the expertise report as a single JSON object
// whose keys match analysis.Record. French, like everything the end user may
// eventually read.
const visionSystemPrompt = `Tu es un technicien accordeur de pianos avec 30 ans d'expérience à Montréal.
On te montre 1 à 3 photos d'un piano, parfois accompagnées de notes du client ou d'une annonce.
Évalue l'état de l'instrument et réponds UNIQUEMENT avec un objet JSON utilisant ces clés
(toutes optionnelles, n'inclus que ce que les photos permettent d'affirmer) :
"marque", "modele", "age_estime", "type_mecanisme", "verdict", "score_global" (0 à 10),
"recommandation_achat", "alertes" (liste), "historique_marque",
"scores" ({"etat_general","clavier","meuble","mecanique"}, chacun {"note": 0 à 10, "description"}),
"problemes_detectes" (liste), "points_positifs" (liste),
"travaux_recommandes" (liste de {"travail","priorite","cout_estime"}),
"valeur_estimee" ({"telle_quelle","apres_travaux"}),
"potentiel_restauration", "urgence", "recommandation_contextuelle", "prochaine_etape",
"commentaire_expert",
"photos_recues" (catégories de photos reçues : clavier, meuble, mécanique, cordes, numéro de série),
"photos_souhaitees" (catégories encore utiles pour affiner l'évaluation).
Tous les scores sont sur 10. Les montants sont en dollars canadiens.`

// VisionProvider implements providers.VisionAnalyzer.
type VisionProvider struct {
	client *openai.Client
	model  string
}

// NewVisionProvider creates a VisionProvider. baseURL may be empty for the
// default OpenAI endpoint, or point at any OpenAI-compatible vision service.
func NewVisionProvider(apiKey, model, baseURL string) (*VisionProvider, error) {
	if apiKey == "" {
		return nil, errors.New("vision API key is required")
	}
	if model == "" {
		return nil, errors.New("vision model is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &VisionProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Analyze submits the images plus notes and decodes the JSON report.
func (p *VisionProvider) Analyze(ctx context.Context, images []providers.Image, notes string) (*analysis.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	userText := "Voici les photos du piano à évaluer."
	if strings.TrimSpace(notes) != "" {
		userText += "\n\nNotes du client :\n" + notes
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: userText,
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(img),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: visionMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, providers.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, providers.ErrContentRejected
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, providers.ErrEmptyResponse
	}

	var rec analysis.Record
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return nil, fmt.Errorf("%w: undecodable analysis payload", providers.ErrEmptyResponse)
	}
	return &rec, nil
}

func dataURL(img providers.Image) string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img.Data))
}
