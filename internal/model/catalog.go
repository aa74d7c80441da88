package model

import (
	"encoding/json"
	"fmt"
)

// PowerType identifies what an upgrade does
type PowerType string

const (
	PowerSpeed  PowerType = "speed"
	PowerMagnet PowerType = "magnet"
	PowerJump   PowerType = "jump"
)

// Power describes an upgrade's effect.
// Only speed is interpreted server side; magnet and jump are carried for clients.
type Power struct {
	Type  PowerType `json:"type"`
	Value float64   `json:"value"`
}

// Upgrade is one entry of the upgrade catalog
type Upgrade struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Power  Power  `json:"power"`
	Visual string `json:"visual,omitempty"`
}

// Catalog is a read-only, ordered table of upgrades.
// Iteration order is the order entries were given to NewCatalog.
type Catalog struct {
	ids  []string
	byID map[string]Upgrade
}

// NewCatalog builds a catalog from an ordered list of upgrades
func NewCatalog(upgrades []Upgrade) (*Catalog, error) {
	c := &Catalog{
		ids:  make([]string, 0, len(upgrades)),
		byID: make(map[string]Upgrade, len(upgrades)),
	}
	for _, u := range upgrades {
		if _, exists := c.byID[u.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUpgrade, u.ID)
		}
		c.ids = append(c.ids, u.ID)
		c.byID[u.ID] = u
	}
	return c, nil
}

// ParseCatalog decodes a JSON array of upgrades
func ParseCatalog(data []byte) (*Catalog, error) {
	var upgrades []Upgrade
	if err := json.Unmarshal(data, &upgrades); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(upgrades)
}

// IDs returns the upgrade ids in catalog order
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of upgrades
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Get returns the upgrade with the given id
func (c *Catalog) Get(id string) (Upgrade, bool) {
	u, ok := c.byID[id]
	return u, ok
}

// SpeedMultiplier returns max(0.25, 1 + sum of speed bonuses) for the owned upgrades.
// Unknown ids are ignored.
func (c *Catalog) SpeedMultiplier(owned []string) float64 {
	mul := 1.0
	for _, id := range owned {
		u, ok := c.byID[id]
		if !ok || u.Power.Type != PowerSpeed {
			continue
		}
		mul += u.Power.Value
	}
	return max(0.25, mul)
}

// DefaultCatalog returns the built-in upgrade table
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Upgrade{
		{ID: "swift_shoes", Name: "Swift Shoes", Power: Power{Type: PowerSpeed, Value: 0.25}, Visual: "#2ecc71"},
		{ID: "rocket_skates", Name: "Rocket Skates", Power: Power{Type: PowerSpeed, Value: 0.5}, Visual: "#e67e22"},
		{ID: "coin_magnet", Name: "Coin Magnet", Power: Power{Type: PowerMagnet, Value: 48}, Visual: "#9b59b6"},
		{ID: "spring_boots", Name: "Spring Boots", Power: Power{Type: PowerJump, Value: 1.5}, Visual: "#3498db"},
	})
	if err != nil {
		panic(err)
	}
	return c
}
