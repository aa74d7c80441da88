package room

import (
	"log/slog"

	"github.com/mcoot/openworld/internal/model"
)

// Palette is the set of player colors
var Palette = []string{"#e74c3c", "#3498db", "#2ecc71", "#9b59b6", "#f1c40f"}

func (r *Room) handleJoin(cmd joinCmd) {
	if _, exists := r.conns[cmd.sessionID]; exists {
		cmd.reply <- errDuplicateSession
		return
	}
	if len(r.conns) >= r.maxClients {
		cmd.reply <- model.ErrRoomFull
		return
	}

	player := model.NewPlayer(cmd.identity.Role, Palette[r.random.Intn(len(Palette))])
	r.players[cmd.sessionID] = player
	r.conns[cmd.sessionID] = cmd.conn
	r.dirty = true

	if cmd.identity.ChildID != "" {
		r.loadBudget(cmd.sessionID, cmd.identity.ChildID)
	}

	r.sendWelcome(cmd.sessionID, cmd.conn)
	r.sendSnapshot(cmd.sessionID, cmd.conn)

	r.logger.Info("room:join",
		slog.String("session", cmd.sessionID),
		slog.String("role", string(player.Role)),
		slog.Int("clients", len(r.conns)),
	)
	cmd.reply <- nil
}

func (r *Room) handleLeave(cmd leaveCmd) {
	if _, ok := r.players[cmd.sessionID]; !ok {
		return
	}
	r.removeMember(cmd.sessionID)
}

// removeMember flushes the session's budget and removes its player in one step
func (r *Room) removeMember(sessionID string) {
	if s, ok := r.sessions[sessionID]; ok {
		r.persist(s)
		delete(r.sessions, sessionID)
	}
	delete(r.players, sessionID)
	delete(r.conns, sessionID)
	r.dirty = true

	r.logger.Info("room:leave", slog.String("session", sessionID), slog.Int("clients", len(r.conns)))
}
