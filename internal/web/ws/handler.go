package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/openworld/internal/api/apierr"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/services/auth"
	"github.com/mcoot/openworld/internal/services/room"
)

// DefaultRoomName is joined when the route carries no room name
const DefaultRoomName = "world"

// Verifier admits or rejects connection attempts
type Verifier interface {
	Verify(ctx context.Context, opts auth.AdmissionOptions, header http.Header) auth.Decision
}

// Rooms hands out seats in rooms
type Rooms interface {
	Reserve(name string) (*room.Room, error)
	Release(r *room.Room)
}

// Config holds transport settings
type Config struct {
	// InputRateLimit caps inbound messages per second per connection. Zero disables the limit.
	InputRateLimit float64
	InputBurst     int
}

// Handler upgrades admitted HTTP requests to websocket room connections
type Handler struct {
	verifier Verifier
	rooms    Rooms
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new websocket handler
func NewHandler(verifier Verifier, rooms Rooms, cfg Config, logger *slog.Logger) *Handler {
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = max(1, int(cfg.InputRateLimit))
	}
	return &Handler{
		verifier: verifier,
		rooms:    rooms,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP verifies the caller, takes a room seat, and only then upgrades
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["room"]
	if name == "" {
		name = DefaultRoomName
	}

	query := r.URL.Query()
	decision := h.verifier.Verify(r.Context(), auth.AdmissionOptions{
		ParentToken: query.Get("parentToken"),
		KidToken:    query.Get("kidToken"),
	}, r.Header)
	if !decision.Accepted {
		apierr.WriteError(w, apierr.NewAdmissionError(decision.Reason))
		return
	}

	rm, err := h.rooms.Reserve(name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	defer h.rooms.Release(rm)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	sessionID := uuid.NewString()
	client := newClient(conn, sessionID, h.logger)
	go client.writePump()
	defer client.finish()

	identity := room.Identity{Role: decision.Role, ChildID: decision.ChildID}
	if err := rm.Join(r.Context(), sessionID, client, identity); err != nil {
		h.logger.Warn("ws join failed", slog.String("room", rm.ID()), slog.String("error", err.Error()))
		_ = client.Close(websocket.CloseTryAgainLater, joinFailureReason(err))
		client.readPump(func([]byte) {})
		return
	}

	limiter := h.newLimiter()
	client.readPump(func(payload []byte) {
		if limiter != nil && !limiter.Allow() {
			return
		}
		rm.Input(sessionID, payload)
	})

	rm.Leave(sessionID)
}

func (h *Handler) newLimiter() *rate.Limiter {
	if h.cfg.InputRateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(h.cfg.InputRateLimit), h.cfg.InputBurst)
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomFull):
		return "room_full"
	case errors.Is(err, model.ErrRoomClosed):
		return "room_closed"
	default:
		return "join_failed"
	}
}
