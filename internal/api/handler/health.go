package handler

import (
	"net/http"
	"os"

	"github.com/mcoot/openworld/internal/api/response"
	"github.com/mcoot/openworld/internal/dependencies/clock"
	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/services/room"
)

// HealthHandler reports liveness and admission diagnostics
type HealthHandler struct {
	diagnostics *diagnostics.Diagnostics
	rooms       *room.Manager
	clock       clock.Clock
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(diag *diagnostics.Diagnostics, rooms *room.Manager, clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		diagnostics: diag,
		rooms:       rooms,
		clock:       clk,
	}
}

// Get handles GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.HealthFromSnapshot(h.diagnostics.Snapshot(), os.Getpid(), h.clock.Now(), len(h.rooms.List()))
	response.JSON(w, http.StatusOK, resp)
}
