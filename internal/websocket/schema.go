package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError               Event = "error"
	EventPong                Event = "pong"
	EventSubscribed          Event = "subscribed"
	EventApplicationReceived Event = "application_received"
	EventSelectionCompleted  Event = "selection_completed"
	EventProgramUpdated      Event = "program_updated"
)

// FeedEvent is published on a program's channel and relayed verbatim to
// every feed subscriber.
type FeedEvent struct {
	Event     Event       `json:"event"`
	ProgramID int64       `json:"program_id"`
	Data      interface{} `json:"data,omitempty"`
}

// ApplicationReceivedData is the public part of a new application.
type ApplicationReceivedData struct {
	Identity string `json:"identity"`
	Score    int    `json:"score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}
