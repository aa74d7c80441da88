package model

import "slices"

// Role is the negotiated role of a connection
type Role string

const (
	RoleKid    Role = "kid"
	RoleParent Role = "parent"
	RoleGuest  Role = "unauthenticated-guest" // admitted without any identity
)

// Player is the replicated entity for one live connection.
// It is owned by the room goroutine and must not be shared outside it.
type Player struct {
	X        float64
	Y        float64
	Color    string
	Stage    int
	Points   int
	Role     Role
	Upgrades []string // unique upgrade ids
}

// NewPlayer creates a player at the world origin
func NewPlayer(role Role, color string) *Player {
	return &Player{
		Color:    color,
		Role:     role,
		Upgrades: []string{},
	}
}

// HasUpgrade reports whether the player owns the given upgrade
func (p *Player) HasUpgrade(id string) bool {
	return slices.Contains(p.Upgrades, id)
}

// GrantUpgrade adds an upgrade if not already owned.
// Returns true if the upgrade set changed.
func (p *Player) GrantUpgrade(id string) bool {
	if p.HasUpgrade(id) {
		return false
	}
	p.Upgrades = append(p.Upgrades, id)
	return true
}

// UpgradeItem is a consumable world object
type UpgradeItem struct {
	ID        string
	X         float64
	Y         float64
	UpgradeID string
}
