// Package models holds the request and response shapes of the HTTP API.
package models

import "github.com/pianotechmtl/ptm-chat-backend/internal/analysis"

// ChatRequest is the /api/chat body. ExpertiseResult carries an analysis
// from an earlier turn back into the conversation context.
type ChatRequest struct {
	Message         string           `json:"message"`
	SessionID       string           `json:"session_id"`
	ExpertiseResult *analysis.Record `json:"expertise_result,omitempty"`
}

// ChatResponse is returned by both /api/chat and /api/chat-upload.
// SessionID echoes the request's session, or the freshly minted one when
// the request did not carry any.
type ChatResponse struct {
	Reply           string           `json:"reply"`
	SessionID       string           `json:"session_id"`
	ExpertiseResult *analysis.Record `json:"expertise_result,omitempty"`
}
