package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionFlag     Action = "flag"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape; fields not used by an
// action are ignored.
type RequestPayload struct {
	Action  Action `json:"action"`
	QID     string `json:"q_id"`
	Answer  string `json:"ans"`
	Flagged bool   `json:"flagged"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventFlagged   Event = "flagged"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

type FlaggedResponse struct {
	Event   Event  `json:"event"`
	QID     string `json:"q_id"`
	Flagged bool   `json:"flagged"`
}

type SubmittedResponse struct {
	Event     Event  `json:"event"`
	SessionID string `json:"session_id"`
	Score     *int   `json:"score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
