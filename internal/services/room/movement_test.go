package room

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/openworld/internal/model"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"minimal", `{"type":"move","dx":1,"dy":-1}`, true},
		{"zero", `{"type":"move","dx":0,"dy":0}`, true},
		{"out of range", `{"type":"move","dx":25,"dy":-9.5}`, true},
		{"with seq and keys", `{"type":"move","dx":1,"dy":0,"seq":7,"keys":["up","left"]}`, true},
		{"extra fields", `{"type":"move","dx":1,"dy":0,"jump":true}`, true},
		{"missing dy", `{"type":"move","dx":1}`, false},
		{"string dx", `{"type":"move","dx":"1","dy":0}`, false},
		{"null dx", `{"type":"move","dx":null,"dy":0}`, false},
		{"negative seq", `{"type":"move","dx":1,"dy":0,"seq":-1}`, false},
		{"fractional seq", `{"type":"move","dx":1,"dy":0,"seq":1.5}`, false},
		{"bad key", `{"type":"move","dx":1,"dy":0,"keys":["jump"]}`, false},
		{"wrong type", `{"type":"chat","dx":1,"dy":0}`, false},
		{"not json", `move 1 0`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseMove([]byte(tt.payload))
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, clamp(2, -1, 1))
	assert.Equal(t, -1.0, clamp(-2, -1, 1))
	assert.Equal(t, 0.5, clamp(0.5, -1, 1))
}

// Movement tests

func (s *RoomSuite) TestMoveClampsInput() {
	s.join("a", Identity{Role: model.RoleGuest})
	s.join("b", Identity{Role: model.RoleGuest})

	s.move("a", `{"type":"move","dx":2,"dy":-2}`)
	s.move("b", `{"type":"move","dx":1,"dy":-1}`)

	a, b := s.room.players["a"], s.room.players["b"]
	s.Equal(3.0, a.X)
	s.Equal(-3.0, a.Y)
	s.Equal(b.X, a.X)
	s.Equal(b.Y, a.Y)
}

func (s *RoomSuite) TestMoveAppliesSpeedUpgrades() {
	s.join("a", Identity{Role: model.RoleKid})
	s.room.players["a"].Upgrades = []string{"swift_shoes", "rocket_skates", "coin_magnet"}

	s.move("a", `{"type":"move","dx":1,"dy":0.5}`)

	p := s.room.players["a"]
	s.InDelta(5.25, p.X, 1e-9)
	s.InDelta(2.625, p.Y, 1e-9)
}

func (s *RoomSuite) TestInvalidMoveDropped() {
	s.join("a", Identity{Role: model.RoleGuest})
	s.room.dirty = false

	s.move("a", `{"type":"move","dx":1}`)
	s.move("a", `{"type":"move","dx":"fast","dy":1}`)
	s.move("a", `not json`)

	p := s.room.players["a"]
	s.Equal(0.0, p.X)
	s.Equal(0.0, p.Y)
	s.False(s.room.dirty)
}

func (s *RoomSuite) TestMoveForUnknownSessionIsNoop() {
	before := len(s.room.items)

	s.move("ghost", `{"type":"move","dx":1,"dy":1}`)

	s.Empty(s.room.players)
	s.Len(s.room.items, before)
}

// Pickup tests

func (s *RoomSuite) placeOn(sessionID string, item *model.UpgradeItem) {
	p := s.room.players[sessionID]
	p.X = item.X
	p.Y = item.Y
}

func (s *RoomSuite) TestPickupGrantsAndRemoves() {
	s.join("a", Identity{Role: model.RoleKid})
	target := s.room.items[0]
	s.placeOn("a", target)

	s.move("a", `{"type":"move","dx":0,"dy":0}`)

	s.Equal([]string{target.UpgradeID}, s.room.players["a"].Upgrades)
	s.Len(s.room.items, 7)
	for _, item := range s.room.items {
		s.NotEqual(target.ID, item.ID)
	}
}

func (s *RoomSuite) TestPickupWithinRadius() {
	s.join("a", Identity{Role: model.RoleKid})
	target := s.room.items[0]
	p := s.room.players["a"]
	p.X = target.X + 16
	p.Y = target.Y

	s.move("a", `{"type":"move","dx":0,"dy":0}`)
	s.Len(s.room.items, 7)

	target = s.room.items[0]
	p.X = target.X + 16.01
	p.Y = target.Y
	s.move("a", `{"type":"move","dx":0,"dy":0}`)
	s.Len(s.room.items, 7)
}

func (s *RoomSuite) TestDuplicatePickupConsumesItemWithoutDuplicateGrant() {
	s.join("a", Identity{Role: model.RoleKid})

	first, second := s.room.items[0], s.room.items[1]
	s.Require().Equal(first.UpgradeID, second.UpgradeID)

	s.placeOn("a", first)
	s.move("a", `{"type":"move","dx":0,"dy":0}`)
	s.placeOn("a", second)
	s.move("a", `{"type":"move","dx":0,"dy":0}`)

	s.Equal([]string{first.UpgradeID}, s.room.players["a"].Upgrades)
	s.Len(s.room.items, 6)
}

func (s *RoomSuite) TestContestedItemHasOneWinner() {
	s.join("a", Identity{Role: model.RoleKid})
	s.join("b", Identity{Role: model.RoleKid})
	s.room.items = []*model.UpgradeItem{
		{ID: "x1", X: 100, Y: 100, UpgradeID: "swift_shoes"},
		{ID: "x2", X: 400, Y: 400, UpgradeID: "coin_magnet"},
	}
	target := s.room.items[0]
	s.placeOn("a", target)
	s.placeOn("b", target)

	s.move("a", `{"type":"move","dx":-0.5,"dy":0}`)
	// b still ends within reach of where the item was, but it is already gone
	s.move("b", `{"type":"move","dx":1,"dy":-1}`)

	s.Equal([]string{"swift_shoes"}, s.room.players["a"].Upgrades)
	s.Empty(s.room.players["b"].Upgrades)
	s.Equal(98.5, s.room.players["a"].X)
	s.Equal(103.0, s.room.players["b"].X)
	s.Equal(97.0, s.room.players["b"].Y)
	s.Require().Len(s.room.items, 1)
	s.Equal("x2", s.room.items[0].ID)
}

func (s *RoomSuite) TestAtMostOnePickupPerInput() {
	s.join("a", Identity{Role: model.RoleKid})
	s.room.items = []*model.UpgradeItem{
		{ID: "x1", X: 50, Y: 50, UpgradeID: "swift_shoes"},
		{ID: "x2", X: 52, Y: 50, UpgradeID: "coin_magnet"},
	}
	s.placeOn("a", s.room.items[0])

	s.move("a", `{"type":"move","dx":0,"dy":0}`)

	s.Equal([]string{"swift_shoes"}, s.room.players["a"].Upgrades)
	s.Require().Len(s.room.items, 1)
	s.Equal("x2", s.room.items[0].ID)
}

func (s *RoomSuite) TestUnknownUpgradeItemRemovedWithoutGrant() {
	s.join("a", Identity{Role: model.RoleKid})
	s.room.items = []*model.UpgradeItem{{ID: "x1", X: 10, Y: 10, UpgradeID: "retired"}}
	s.placeOn("a", s.room.items[0])

	s.move("a", `{"type":"move","dx":0,"dy":0}`)

	s.Empty(s.room.players["a"].Upgrades)
	s.Empty(s.room.items)
}
