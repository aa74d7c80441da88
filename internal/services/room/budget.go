package room

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// budgetStep is subtracted from a session every tick. It assumes a 60 Hz tick;
	// at other tick rates budgets drain proportionally faster or slower.
	budgetStep = 1.0 / 60.0

	// DefaultFlushInterval is how often remaining time is written back
	DefaultFlushInterval = 5 * time.Second

	storeTimeout = 5 * time.Second

	// CloseNormal and ReasonTimeUp are sent when a budget runs out
	CloseNormal  = 1000
	ReasonTimeUp = "time_up"
)

// budgetSession tracks a child's remaining play time for one connection
type budgetSession struct {
	childID   string
	remaining float64
	lastSave  time.Time
}

func (s *budgetSession) seconds() int {
	return int(math.Floor(max(0, s.remaining)))
}

// loadBudget fetches a child's remaining time off the room goroutine and
// reports back through the inbox. Failures leave the player without a budget.
func (r *Room) loadBudget(sessionID, childID string) {
	r.spawner.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		child, err := r.store.GetChild(ctx, childID)
		if err != nil {
			r.logger.Warn("admission: failed to load kid",
				slog.String("child", childID),
				slog.String("error", err.Error()),
			)
			return
		}
		_ = r.post(budgetLoadedCmd{sessionID: sessionID, childID: childID, timeLeft: child.TimeLeftDay})
	})
}

func (r *Room) handleBudgetLoaded(cmd budgetLoadedCmd) {
	if _, ok := r.players[cmd.sessionID]; !ok {
		return
	}
	r.sessions[cmd.sessionID] = &budgetSession{
		childID:   cmd.childID,
		remaining: max(0, float64(cmd.timeLeft)),
		lastSave:  r.clock.Now(),
	}
	r.logger.Debug("budget: loaded", slog.String("session", cmd.sessionID), slog.Int("seconds", cmd.timeLeft))
}

// timeLeftWrites keeps at most one store write in flight per child.
// Values persisted while a write is running replace each other and are
// written once it finishes, so the last value issued is the last one stored.
type timeLeftWrites struct {
	mu      sync.Mutex
	pending map[string]*pendingWrite
}

type pendingWrite struct {
	seconds int
	queued  bool
}

// persist writes a session's remaining time without waiting for the result.
// Errors are logged and dropped; the next flush carries fresher data.
func (r *Room) persist(s *budgetSession) {
	childID, seconds := s.childID, s.seconds()

	r.writes.mu.Lock()
	if w, ok := r.writes.pending[childID]; ok {
		w.seconds, w.queued = seconds, true
		r.writes.mu.Unlock()
		return
	}
	if r.writes.pending == nil {
		r.writes.pending = make(map[string]*pendingWrite)
	}
	r.writes.pending[childID] = &pendingWrite{}
	r.writes.mu.Unlock()

	r.spawner.Go(func() { r.writeTimeLeft(childID, seconds) })
}

// writeTimeLeft stores seconds, then any value queued behind it, until none is left
func (r *Room) writeTimeLeft(childID string, seconds int) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := r.store.UpdateChildTimeLeft(ctx, childID, seconds)
		cancel()
		if err != nil {
			r.logger.Debug("budget: flush failed",
				slog.String("child", childID),
				slog.String("error", err.Error()),
			)
		}

		r.writes.mu.Lock()
		w := r.writes.pending[childID]
		if !w.queued {
			delete(r.writes.pending, childID)
			r.writes.mu.Unlock()
			return
		}
		seconds, w.queued = w.seconds, false
		r.writes.mu.Unlock()
	}
}

// tickBudgets drains every session by one step, flushes stale ones and
// disconnects sessions that ran out.
func (r *Room) tickBudgets(now time.Time) {
	for sessionID, s := range r.sessions {
		s.remaining -= budgetStep
		exhausted := s.remaining <= 0
		if exhausted {
			s.remaining = 0
		}

		if now.Sub(s.lastSave) >= r.flushInterval {
			s.lastSave = now
			r.persist(s)
		}

		if exhausted {
			if conn, ok := r.conns[sessionID]; ok {
				if err := conn.Close(CloseNormal, ReasonTimeUp); err != nil {
					r.logger.Debug("budget: close failed", slog.String("session", sessionID), slog.String("error", err.Error()))
				}
			}
			r.logger.Info("budget: time up", slog.String("session", sessionID), slog.String("child", s.childID))
			r.removeMember(sessionID)
		}
	}
}
