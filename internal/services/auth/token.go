package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Claims is the signed payload of an admission token.
// Kid tokens carry Kid, parent tokens carry Parent (and optionally Family).
type Claims struct {
	Kid    string `json:"kid,omitempty"`
	Parent string `json:"parent,omitempty"`
	Family string `json:"fam,omitempty"`
	// Exp is a unix timestamp in seconds
	Exp int64 `json:"exp"`
}

// SignToken produces "<base64url(json)>.<hex(hmac-sha256)>" for the claims
func SignToken(secret string, claims Claims) (string, error) {
	body, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	data := base64.RawURLEncoding.EncodeToString(body)
	return data + "." + sign(secret, data), nil
}

func sign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// splitToken returns the data and signature parts. Anything after a second dot is ignored.
func splitToken(token string) (data, sig string) {
	parts := strings.Split(token, ".")
	data = parts[0]
	if len(parts) > 1 {
		sig = parts[1]
	}
	return data, sig
}

// payload is the decoded token body. Exp is a pointer so a missing field is detectable.
type payload struct {
	Kid    string   `json:"kid"`
	Parent string   `json:"parent"`
	Family string   `json:"fam"`
	Exp    *float64 `json:"exp"`
}

// decodePayload accepts base64url with or without padding, and plain base64
func decodePayload(data string) (*payload, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(data, "="))
	raw, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return &p, nil
}

// expired reports whether the payload's exp lies before nowUnix. A missing exp counts as expired.
func (p *payload) expired(nowUnix int64) bool {
	return p.Exp == nil || *p.Exp < float64(nowUnix)
}
