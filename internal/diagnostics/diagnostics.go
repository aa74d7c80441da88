// Package diagnostics holds process-wide debugging state surfaced by the health endpoint.
package diagnostics

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/mcoot/openworld/internal/dependencies/clock"
)

// Fingerprint returns the first 8 hex chars of the SHA-256 of s.
// Used to compare secrets and URLs across processes without logging them.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// AuthNote is the most recent admission outcome
type AuthNote struct {
	OK     bool      `json:"ok"`
	Reason string    `json:"reason"`
	Time   time.Time `json:"time"`
}

// Snapshot is a point-in-time copy of the diagnostics
type Snapshot struct {
	SecretFingerprint string   `json:"secretFp"`
	RequireKidAuth    bool     `json:"requireKidAuth"`
	LastAuth          AuthNote `json:"lastAuth"`
}

// Diagnostics is safe for concurrent use
type Diagnostics struct {
	clock clock.Clock

	secretFP       string
	requireKidAuth bool

	mu       sync.Mutex
	lastAuth AuthNote
}

// New creates diagnostics for the given secret. The secret itself is not retained.
func New(clk clock.Clock, secret string, requireKidAuth bool) *Diagnostics {
	return &Diagnostics{
		clock:          clk,
		secretFP:       Fingerprint(secret),
		requireKidAuth: requireKidAuth,
		lastAuth:       AuthNote{OK: true, Time: clk.Now()},
	}
}

// NoteAuth records an admission decision
func (d *Diagnostics) NoteAuth(ok bool, reason string) {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAuth = AuthNote{OK: ok, Reason: reason, Time: now}
}

// SecretFingerprint returns the token secret's fingerprint
func (d *Diagnostics) SecretFingerprint() string {
	return d.secretFP
}

func (d *Diagnostics) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		SecretFingerprint: d.secretFP,
		RequireKidAuth:    d.requireKidAuth,
		LastAuth:          d.lastAuth,
	}
}
