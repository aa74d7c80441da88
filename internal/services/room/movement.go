package room

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/openworld/internal/model"
)

const (
	baseSpeed    = 3.0
	pickupRadius = 16.0
)

var validate = validator.New()

// parseMove decodes and validates a move message. ok is false for anything malformed.
func parseMove(payload []byte) (MoveMessage, bool) {
	var msg MoveMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return MoveMessage{}, false
	}
	if err := validate.Struct(msg); err != nil {
		return MoveMessage{}, false
	}
	return msg, true
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// applyMove moves the player by the clamped input scaled by base speed and upgrades
func (r *Room) applyMove(p *model.Player, dx, dy float64) {
	speed := baseSpeed * r.catalog.SpeedMultiplier(p.Upgrades)
	p.X += clamp(dx, -1, 1) * speed
	p.Y += clamp(dy, -1, 1) * speed
}

// checkPickup collects at most one item within reach of the player.
// The item is removed even if its upgrade was already owned.
func (r *Room) checkPickup(sessionID string, p *model.Player) bool {
	for i, item := range r.items {
		dx := p.X - item.X
		dy := p.Y - item.Y
		if dx*dx+dy*dy > pickupRadius*pickupRadius {
			continue
		}

		if _, ok := r.catalog.Get(item.UpgradeID); ok {
			p.GrantUpgrade(item.UpgradeID)
		}
		r.items = append(r.items[:i], r.items[i+1:]...)

		r.logger.Info("items:pickup",
			slog.String("session", sessionID),
			slog.String("upgrade", item.UpgradeID),
			slog.Int("remaining", len(r.items)),
		)
		return true
	}
	return false
}

func (r *Room) handleInput(cmd inputCmd) {
	p, ok := r.players[cmd.sessionID]
	if !ok {
		return
	}

	var env envelope
	if err := json.Unmarshal(cmd.payload, &env); err != nil || env.Type != MessageMove {
		return
	}
	msg, ok := parseMove(cmd.payload)
	if !ok {
		return
	}

	r.applyMove(p, *msg.DX, *msg.DY)
	r.checkPickup(cmd.sessionID, p)
	r.dirty = true
}
