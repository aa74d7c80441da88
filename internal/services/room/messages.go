package room

import "github.com/mcoot/openworld/internal/model"

// Conn is the room's view of a client connection.
// Send must not block the room goroutine.
type Conn interface {
	Send(data []byte) error
	Close(code int, reason string) error
}

// Identity is what the room needs to know about an admitted connection
type Identity struct {
	Role model.Role
	// ChildID binds the connection to a child's time budget when set
	ChildID string
}

// Commands delivered to the room goroutine

type joinCmd struct {
	sessionID string
	conn      Conn
	identity  Identity
	reply     chan error
}

type leaveCmd struct {
	sessionID string
}

type inputCmd struct {
	sessionID string
	payload   []byte
}

type budgetLoadedCmd struct {
	sessionID string
	childID   string
	timeLeft  int
}

// Wire messages

const (
	MessageWelcome = "welcome"
	MessageState   = "state"
	MessageMove    = "move"
)

// WelcomeMessage is sent once to a joining connection
type WelcomeMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	SessionID string `json:"sessionId"`
}

// PlayerState is the replicated view of a player
type PlayerState struct {
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Color    string     `json:"color"`
	Stage    int        `json:"stage"`
	Points   int        `json:"points"`
	Role     model.Role `json:"role"`
	Upgrades []string   `json:"upgrades"`
}

// ItemState is the replicated view of an upgrade item
type ItemState struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	UpgradeID string  `json:"upgradeId"`
}

// StateMessage is the full room snapshot pushed after mutations
type StateMessage struct {
	Type    string                 `json:"type"`
	Players map[string]PlayerState `json:"players"`
	Items   []ItemState            `json:"items"`
}

// envelope is used to route inbound messages by type
type envelope struct {
	Type string `json:"type"`
}

// MoveMessage is a client movement input. Only DX and DY affect the simulation.
type MoveMessage struct {
	Type string   `json:"type" validate:"required,eq=move"`
	DX   *float64 `json:"dx" validate:"required"`
	DY   *float64 `json:"dy" validate:"required"`
	Seq  *int64   `json:"seq,omitempty" validate:"omitempty,min=0"`
	Keys []string `json:"keys,omitempty" validate:"omitempty,dive,oneof=up down left right"`
}
