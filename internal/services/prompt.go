package services

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// defaultSystemPrompt is used when the prompt file is missing or empty.
const defaultSystemPrompt = "Tu es l'assistant virtuel de Piano Technique Montréal. " +
	"Tu aides les clients avec leurs questions sur l'achat, l'entretien, l'accord et la réparation de pianos. " +
	"Réponds en français, de façon chaleureuse et professionnelle."

// LoadSystemPrompt reads the persona prompt once at startup. It never fails:
// a missing or empty file falls back to the built-in default.
func LoadSystemPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("system prompt file not readable, using built-in default")
		return defaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
