package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/openworld/internal/dependencies/async"
	"github.com/mcoot/openworld/internal/dependencies/clock"
	"github.com/mcoot/openworld/internal/dependencies/random"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

const (
	DefaultTickHz     = 60
	DefaultMaxClients = 100

	// CloseGoingAway is sent to connections still present when a room shuts down
	CloseGoingAway = 1001

	inboxSize = 256
)

var errDuplicateSession = errors.New("session already joined")

// Config holds room settings
type Config struct {
	TickHz        int
	MaxClients    int
	FlushInterval time.Duration
}

// DefaultConfig returns the default room configuration
func DefaultConfig() Config {
	return Config{
		TickHz:        DefaultTickHz,
		MaxClients:    DefaultMaxClients,
		FlushInterval: DefaultFlushInterval,
	}
}

// Dependencies are the collaborators shared by all rooms
type Dependencies struct {
	Store   storage.AccountStore
	Catalog *model.Catalog
	Clock   clock.Clock
	Random  random.Random
	Spawner async.Spawner
	Logger  *slog.Logger
}

// Room is one authoritative world instance. All state is owned by the
// goroutine running Run; other goroutines talk to it through the inbox.
type Room struct {
	id   string
	name string

	catalog *model.Catalog
	store   storage.AccountStore
	clock   clock.Clock
	random  random.Random
	spawner async.Spawner
	logger  *slog.Logger

	tickInterval  time.Duration
	maxClients    int
	flushInterval time.Duration

	inbox chan any
	quit  chan struct{}
	done  chan struct{}

	players    map[string]*model.Player
	conns      map[string]Conn
	sessions   map[string]*budgetSession
	writes     timeLeftWrites
	items      []*model.UpgradeItem
	nextItemID int
	dirty      bool
}

// New creates a room and spawns its items. Call Run to start the simulation.
func New(id, name string, cfg Config, deps Dependencies) *Room {
	if cfg.TickHz <= 0 {
		cfg.TickHz = DefaultTickHz
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	r := &Room{
		id:            id,
		name:          name,
		catalog:       deps.Catalog,
		store:         deps.Store,
		clock:         deps.Clock,
		random:        deps.Random,
		spawner:       deps.Spawner,
		logger:        deps.Logger.With(slog.String("room", id)),
		tickInterval:  time.Second / time.Duration(cfg.TickHz),
		maxClients:    cfg.MaxClients,
		flushInterval: cfg.FlushInterval,
		inbox:         make(chan any, inboxSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		players:       make(map[string]*model.Player),
		conns:         make(map[string]Conn),
		sessions:      make(map[string]*budgetSession),
	}

	r.logger.Info("room:create", slog.String("name", name))
	r.spawnItems()
	return r
}

// ID returns the room's unique id
func (r *Room) ID() string {
	return r.id
}

// Name returns the name clients join by
func (r *Room) Name() string {
	return r.name
}

// Done is closed once Run has returned
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run processes commands and ticks until Stop is called
func (r *Room) Run() {
	defer close(r.done)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.shutdown()
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

// Stop ends the room. Queued commands are processed and remaining budgets flushed first.
func (r *Room) Stop() {
	select {
	case <-r.quit:
	default:
		close(r.quit)
	}
}

// Join adds a connection to the room and blocks until the room has accepted or refused it
func (r *Room) Join(ctx context.Context, sessionID string, conn Conn, identity Identity) error {
	reply := make(chan error, 1)
	if err := r.post(joinCmd{sessionID: sessionID, conn: conn, identity: identity, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return model.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave removes a connection. Unknown sessions are ignored.
func (r *Room) Leave(sessionID string) {
	_ = r.post(leaveCmd{sessionID: sessionID})
}

// Input queues a raw client message for the room
func (r *Room) Input(sessionID string, payload []byte) {
	_ = r.post(inputCmd{sessionID: sessionID, payload: payload})
}

func (r *Room) post(cmd any) error {
	select {
	case <-r.quit:
		return model.ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.quit:
		return model.ErrRoomClosed
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
	case leaveCmd:
		r.handleLeave(c)
	case inputCmd:
		r.handleInput(c)
	case budgetLoadedCmd:
		r.handleBudgetLoaded(c)
	}
}

func (r *Room) tick() {
	r.tickBudgets(r.clock.Now())
	if r.dirty {
		r.broadcastState()
		r.dirty = false
	}
}

// shutdown drains queued commands, then flushes and disconnects everyone left
func (r *Room) shutdown() {
	for drained := false; !drained; {
		select {
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		default:
			drained = true
		}
	}

	for sessionID, conn := range r.conns {
		_ = conn.Close(CloseGoingAway, "shutdown")
		r.removeMember(sessionID)
	}
	r.logger.Info("room:dispose")
}

func (r *Room) snapshot() StateMessage {
	msg := StateMessage{
		Type:    MessageState,
		Players: make(map[string]PlayerState, len(r.players)),
		Items:   make([]ItemState, 0, len(r.items)),
	}
	for id, p := range r.players {
		upgrades := make([]string, len(p.Upgrades))
		copy(upgrades, p.Upgrades)
		msg.Players[id] = PlayerState{
			X:        p.X,
			Y:        p.Y,
			Color:    p.Color,
			Stage:    p.Stage,
			Points:   p.Points,
			Role:     p.Role,
			Upgrades: upgrades,
		}
	}
	for _, item := range r.items {
		msg.Items = append(msg.Items, ItemState{ID: item.ID, X: item.X, Y: item.Y, UpgradeID: item.UpgradeID})
	}
	return msg
}

func (r *Room) sendWelcome(sessionID string, conn Conn) {
	data, err := json.Marshal(WelcomeMessage{Type: MessageWelcome, RoomID: r.id, SessionID: sessionID})
	if err != nil {
		r.logger.Error("failed to marshal welcome", slog.String("error", err.Error()))
		return
	}
	r.send(sessionID, conn, data)
}

func (r *Room) sendSnapshot(sessionID string, conn Conn) {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		r.logger.Error("failed to marshal state", slog.String("error", err.Error()))
		return
	}
	r.send(sessionID, conn, data)
}

func (r *Room) broadcastState() {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		r.logger.Error("failed to marshal state", slog.String("error", err.Error()))
		return
	}
	for sessionID, conn := range r.conns {
		r.send(sessionID, conn, data)
	}
}

func (r *Room) send(sessionID string, conn Conn, data []byte) {
	if err := conn.Send(data); err != nil {
		r.logger.Debug("send failed", slog.String("session", sessionID), slog.String("error", err.Error()))
	}
}
