// Package handlers implements the HTTP endpoints of the chat widget API.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pianotechmtl/ptm-chat-backend/internal/api/models"
	"github.com/pianotechmtl/ptm-chat-backend/internal/providers"
	"github.com/pianotechmtl/ptm-chat-backend/internal/quota"
	"github.com/pianotechmtl/ptm-chat-backend/internal/services"
)

const maxImages = 3

// allowedImageTypes is the MIME allowlist for uploaded photos.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Fixed user-facing throttling and failure messages.
const (
	msgChatRateLimited   = "Limite de messages atteinte pour cette heure. Réessayez un peu plus tard."
	msgUploadRateLimited = "Limite d'envois de photos atteinte pour cette heure. Réessayez un peu plus tard."
	msgVisionQuotaUsed   = "Limite quotidienne d'analyses photo atteinte. Réessayez demain."
	msgChatUnavailable   = "Le service de conversation est temporairement indisponible. Réessayez dans quelques instants."
	msgVisionUnavailable = "Le service d'analyse est temporairement indisponible. Réessayez dans quelques instants."
	msgVisionRejected    = "L'analyse a été refusée pour ces photos. Essayez avec d'autres photos du piano."
	msgVisionEmpty       = "L'analyse n'a retourné aucun résultat. Réessayez avec des photos plus nettes."
)

// Chat handles POST /api/chat: a text-only turn, with optional listing
// enrichment when the message contains a URL.
func Chat(composer *services.Composer, guard *quota.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide.")
		}
		if strings.TrimSpace(req.Message) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Le champ message est requis.")
		}

		ip := c.IP()
		if !guard.Allow(ip, quota.Chat) {
			return throttled(c, msgChatRateLimited, guard.Remaining(ip, quota.Chat))
		}
		guard.Record(ip, quota.Chat)

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		result, err := composer.Respond(c.UserContext(), services.TurnInput{
			SessionID: sessionID,
			Message:   req.Message,
			Analysis:  req.ExpertiseResult,
		})
		if err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Error("chat turn failed")
			return fiber.NewError(fiber.StatusBadGateway, msgChatUnavailable)
		}

		return c.JSON(models.ChatResponse{
			Reply:           result.Reply,
			SessionID:       sessionID,
			ExpertiseResult: result.Analysis,
		})
	}
}

// ChatUpload handles POST /api/chat-upload: a multipart turn carrying 1-3
// photos that go straight to the vision provider. Quotas are checked before
// any file is read so a throttled request costs nothing.
func ChatUpload(composer *services.Composer, guard *quota.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !guard.Allow(ip, quota.Upload) {
			return throttled(c, msgUploadRateLimited, guard.Remaining(ip, quota.Upload))
		}

		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Formulaire multipart invalide.")
		}

		files := form.File["images"]
		if len(files) < 1 || len(files) > maxImages {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Veuillez fournir entre 1 et %d images.", maxImages))
		}
		for _, fh := range files {
			contentType := fh.Header.Get("Content-Type")
			if !allowedImageTypes[contentType] {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Type de fichier non supporté : %s. Types acceptés : image/jpeg, image/png, image/webp, image/gif.", contentType))
			}
		}

		if !guard.Allow(ip, quota.Vision) {
			return throttled(c, msgVisionQuotaUsed, guard.Remaining(ip, quota.Vision))
		}

		images, err := readImages(files)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Impossible de lire les images envoyées.")
		}

		message := strings.TrimSpace(formValue(form, "message"))
		if message == "" {
			message = "Voici des photos de mon piano."
		}
		sessionID := formValue(form, "session_id")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		guard.Record(ip, quota.Upload)
		guard.Record(ip, quota.Vision)

		result, err := composer.Respond(c.UserContext(), services.TurnInput{
			SessionID: sessionID,
			Message:   message,
			Images:    images,
			Notes:     uploadNotes(form, message),
		})
		if err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Error("upload turn failed")
			return uploadError(err)
		}

		return c.JSON(models.ChatResponse{
			Reply:           result.Reply,
			SessionID:       sessionID,
			ExpertiseResult: result.Analysis,
		})
	}
}

// uploadError maps the surfaced failure modes of an upload turn. The vision
// taxonomy stays distinguishable because the user explicitly asked for an
// analysis.
func uploadError(err error) error {
	switch {
	case errors.Is(err, providers.ErrContentRejected):
		return fiber.NewError(fiber.StatusUnprocessableEntity, msgVisionRejected)
	case errors.Is(err, providers.ErrEmptyResponse):
		return fiber.NewError(fiber.StatusBadGateway, msgVisionEmpty)
	case errors.Is(err, services.ErrChatFailed):
		return fiber.NewError(fiber.StatusBadGateway, msgChatUnavailable)
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, msgVisionUnavailable)
	}
}

func readImages(files []*multipart.FileHeader) ([]providers.Image, error) {
	images := make([]providers.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, providers.Image{
			Data:     data,
			MIMEType: fh.Header.Get("Content-Type"),
		})
	}
	return images, nil
}

// uploadNotes combines the user's text with the optional contact fields so
// the analyst report can mention them.
func uploadNotes(form *multipart.Form, message string) string {
	parts := []string{message}
	if v := formValue(form, "nom"); v != "" {
		parts = append(parts, "Nom du client : "+v)
	}
	if v := formValue(form, "email"); v != "" {
		parts = append(parts, "Courriel : "+v)
	}
	if v := formValue(form, "telephone"); v != "" {
		parts = append(parts, "Téléphone : "+v)
	}
	return strings.Join(parts, "\n")
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func throttled(c *fiber.Ctx, message string, remaining int) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":     message,
		"remaining": remaining,
	})
}
