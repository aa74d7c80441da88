package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/openworld/internal/api/apierr"
	"github.com/mcoot/openworld/internal/api/response"
	"github.com/mcoot/openworld/internal/services/room"
)

// RoomHandler exposes live room information
type RoomHandler struct {
	rooms *room.Manager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *room.Manager) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromInfo(h.rooms.List()))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.rooms.Info(mux.Vars(r)["id"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromInfo(info))
}
