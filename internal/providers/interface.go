// Package providers defines the external AI capabilities this service glues
// together: a chat-completion provider and a vision-analysis provider.
package providers

import (
	"context"
	"errors"

	"github.com/pianotechmtl/ptm-chat-backend/internal/analysis"
)

// Failure modes a vision call can report beyond plain transport errors.
// The direct-upload path surfaces these to the client; the listing
// enrichment path swallows them.
var (
	// ErrContentRejected means the provider's safety filtering refused to
	// analyze the submitted photos.
	ErrContentRejected = errors.New("analysis rejected by content filter")

	// ErrEmptyResponse means the provider answered but produced no usable
	// analysis payload.
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// Message roles, matching the chat-completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged message in an outbound chat sequence.
type Message struct {
	Role    string
	Content string
}

// Image is one encoded image handed to the vision provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// ReplyBudget caps the assistant reply length in tokens. Turns that carry an
// analysis context get a larger budget since there is more to summarize.
type ReplyBudget int

const (
	BudgetConversation ReplyBudget = 500
	BudgetWithAnalysis ReplyBudget = 900
)

// ChatResponder produces a reply for an ordered message sequence.
type ChatResponder interface {
	Respond(ctx context.Context, messages []Message, budget ReplyBudget) (string, error)
}

// VisionAnalyzer produces a structured piano-condition report from 1-3
// images plus optional free-text notes. Errors wrap ErrContentRejected or
// ErrEmptyResponse when those cases can be distinguished from transport
// failures.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, images []Image, notes string) (*analysis.Record, error)
}
