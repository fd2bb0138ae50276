package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const (
	actionTurn  = "game:turn"
	actionReset = "game:reset"
	actionState = "game:state"
	actionError = "error"
)

// Message represents a WebSocket message with an action type and a payload.
// Game events are sent with the event type as the action.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Cell    *int         `json:"cell,omitempty"`
	Game    *entity.Game `json:"game,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func newMessage(action string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: raw}, nil
}
