package room

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mcoot/openworld/internal/model"
)

const (
	spawnRadius   = 200.0
	itemsPerEntry = 2
)

// spawnItems places itemsPerEntry items per catalog entry on a ring around the origin.
// Must be called exactly once per room.
func (r *Room) spawnItems() {
	ids := r.catalog.IDs()
	if len(ids) == 0 {
		r.logger.Info("items:spawn", slog.Int("count", 0))
		return
	}

	step := math.Pi / float64(len(ids)*2)
	angle := 0.0
	for _, upgradeID := range ids {
		for i := 0; i < itemsPerEntry; i++ {
			jitter := float64(i*40 - 20)
			r.nextItemID++
			r.items = append(r.items, &model.UpgradeItem{
				ID:        fmt.Sprintf("i%d", r.nextItemID),
				X:         roundHalfUp(math.Cos(angle)*spawnRadius + jitter),
				Y:         roundHalfUp(math.Sin(angle)*spawnRadius + jitter),
				UpgradeID: upgradeID,
			})
			angle += step
		}
	}

	r.logger.Info("items:spawn", slog.Int("count", len(r.items)))
}

// roundHalfUp rounds .5 towards positive infinity
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
