package types

import (
	"github.com/cooksync/internal/document"
)

// CommandRequest is the JSON envelope clients POST to mutate a session. Op
// selects the operation; only the fields that operation reads need to be
// present.
type CommandRequest struct {
	Op         string              `json:"op"`
	DurationMs int64               `json:"duration_ms,omitempty"`
	DeltaMs    int64               `json:"delta_ms,omitempty"`
	Label      string              `json:"label,omitempty"`
	Target     string              `json:"target,omitempty"`
	Items      []document.ListItem `json:"items,omitempty"`
	Item       *document.ListItem  `json:"item,omitempty"`
	ItemID     string              `json:"item_id,omitempty"`
	Name       string              `json:"name,omitempty"`
	Text       string              `json:"text,omitempty"`
	Index      *int                `json:"index,omitempty"`
}

// SessionResponse is the canonical snapshot returned for reads and accepted
// commands.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Document  document.Document `json:"document"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
