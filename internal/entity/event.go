package entity

type EventType string

const (
	EventMoveApplied EventType = "move:applied"
	EventGameEnded   EventType = "game:ended"
	EventGameReset   EventType = "game:reset"
)

// Event is emitted by the game controller after a completed transition.
// Cell and Mark are meaningful for EventMoveApplied only.
type Event struct {
	Type    EventType `json:"type"`
	RoundID string    `json:"round_id"`
	Cell    int       `json:"cell"`
	Mark    Mark      `json:"mark,omitempty"`
	Status  Status    `json:"status"`
	Game    Game      `json:"game"`
}
