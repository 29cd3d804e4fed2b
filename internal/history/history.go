package history

// Roles for transcript entries. These match the wire format expected by the
// chat provider, so no translation happens between storage and prompt assembly.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxEntries is the per-session retention window: 10 exchanges
// (a user message plus the assistant reply each count as one entry).
// Older entries are dropped first when the window is exceeded.
const MaxEntries = 20

// Entry is one message in a session transcript.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps per-session conversation transcripts for the lifetime of the
// process. Session IDs are opaque, client-chosen strings.
//
// Individual calls are safe for concurrent use, but a turn that reads
// history, awaits the chat provider and then appends is intentionally not a
// critical section: two concurrent turns on the same session can interleave
// and land their exchanges out of order. Sessions belong to a single widget
// instance in practice, so we accept that rather than hold a lock across a
// multi-second network call.
type Store interface {
	// Get returns a copy of the session transcript, oldest first.
	// Unknown sessions yield an empty slice.
	Get(sessionID string) []Entry

	// Append adds entries to the end of the session transcript, creating the
	// session on first use and trimming from the front past MaxEntries.
	Append(sessionID string, entries ...Entry)
}
