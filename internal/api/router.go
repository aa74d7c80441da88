package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/openworld/internal/api/apierr"
	"github.com/mcoot/openworld/internal/api/handler"
	"github.com/mcoot/openworld/internal/api/middleware"
	"github.com/mcoot/openworld/internal/dependencies/clock"
	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Diagnostics *diagnostics.Diagnostics
	Rooms       *room.Manager
	Clock       clock.Clock
	// Realtime serves websocket room connections
	Realtime http.Handler
}

const apiPrefix = "/api/v1"

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	healthHandler := handler.NewHealthHandler(cfg.Diagnostics, cfg.Rooms, cfg.Clock)
	roomHandler := handler.NewRoomHandler(cfg.Rooms)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Realtime connections; admission happens before the upgrade
	r.Handle("/ws", cfg.Realtime).Methods(http.MethodGet)
	r.Handle("/ws/{room:[A-Za-z0-9_-]{1,64}}", cfg.Realtime).Methods(http.MethodGet)

	// Registered on the root router: a PathPrefix subrouter's prefix matcher resets
	// method mismatches, turning 405s into 404s.
	r.HandleFunc(apiPrefix+"/health", healthHandler.Get).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/rooms", roomHandler.List).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError(req.Method))
	})

	return r
}
