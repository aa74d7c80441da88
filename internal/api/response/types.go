package response

import (
	"time"

	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/services/room"
)

// Health is the response for the health endpoint
type Health struct {
	OK             bool                 `json:"ok"`
	PID            int                  `json:"pid"`
	Time           time.Time            `json:"time"`
	SecretFP       string               `json:"secretFp"`
	RequireKidAuth bool                 `json:"requireKidAuth"`
	LastAuth       diagnostics.AuthNote `json:"lastAuth"`
	Rooms          int                  `json:"rooms"`
}

// HealthFromSnapshot builds a Health response
func HealthFromSnapshot(snap diagnostics.Snapshot, pid int, now time.Time, rooms int) Health {
	return Health{
		OK:             true,
		PID:            pid,
		Time:           now,
		SecretFP:       snap.SecretFingerprint,
		RequireKidAuth: snap.RequireKidAuth,
		LastAuth:       snap.LastAuth,
		Rooms:          rooms,
	}
}

// Room represents a live room in API responses
type Room struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"maxClients"`
}

// RoomFromInfo converts room.Info
func RoomFromInfo(info room.Info) Room {
	return Room{
		RoomID:     info.RoomID,
		Name:       info.Name,
		Clients:    info.Clients,
		MaxClients: info.MaxClients,
	}
}

// RoomList is the response for listing rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromInfo converts a slice of room.Info
func RoomListFromInfo(infos []room.Info) RoomList {
	rooms := make([]Room, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, RoomFromInfo(info))
	}
	return RoomList{Rooms: rooms}
}
