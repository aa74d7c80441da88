package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case TokenResult:
		o.printTokenResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AuthNote is the most recent admission decision reported by the server
type AuthNote struct {
	OK     bool      `json:"ok"`
	Reason string    `json:"reason"`
	Time   time.Time `json:"time"`
}

// HealthResult response type
type HealthResult struct {
	OK             bool      `json:"ok"`
	PID            int       `json:"pid"`
	Time           time.Time `json:"time"`
	SecretFP       string    `json:"secretFp"`
	RequireKidAuth bool      `json:"requireKidAuth"`
	LastAuth       AuthNote  `json:"lastAuth"`
	Rooms          int       `json:"rooms"`
}

// Room response type
type Room struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"maxClients"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// TokenResult is a locally minted admission token
type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (o *Output) printHealthResult(h HealthResult) {
	status := "ok"
	if !h.OK {
		status = "unhealthy"
	}
	fmt.Fprintf(o.w, "Status: %s\n", status)
	fmt.Fprintf(o.w, "PID: %d\n", h.PID)
	fmt.Fprintf(o.w, "Secret FP: %s\n", h.SecretFP)
	fmt.Fprintf(o.w, "Require kid auth: %t\n", h.RequireKidAuth)
	fmt.Fprintf(o.w, "Last auth: %s (ok=%t at %s)\n", h.LastAuth.Reason, h.LastAuth.OK, h.LastAuth.Time.Format(time.RFC3339))
	fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "%s  %-12s %d/%d\n", r.RoomID, r.Name, r.Clients, r.MaxClients)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		o.printRoom(r)
	}
}

func (o *Output) printTokenResult(t TokenResult) {
	fmt.Fprintln(o.w, t.Token)
}
