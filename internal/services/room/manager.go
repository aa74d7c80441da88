package room

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/openworld/internal/dependencies/random"
	"github.com/mcoot/openworld/internal/model"
)

const (
	roomIDLength  = 9
	maxIDAttempts = 10
)

// Info summarises a live room
type Info struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"maxClients"`
}

type managedRoom struct {
	room  *Room
	seats int
}

// Manager creates rooms on demand and disposes of them when their last seat is released
type Manager struct {
	cfg    Config
	deps   Dependencies
	logger *slog.Logger

	mu     sync.Mutex
	rooms  map[string]*managedRoom
	order  []string
	closed bool

	// running tracks Run goroutines, including rooms already released
	running sync.WaitGroup
}

// NewManager creates a new room manager
func NewManager(cfg Config, deps Dependencies) *Manager {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(slog.String("component", "rooms")),
		rooms:  make(map[string]*managedRoom),
	}
}

// Reserve takes a seat in the oldest room with the given name that has space,
// creating and starting a new room when none does. Every successful Reserve
// must be paired with a Release.
func (m *Manager) Reserve(name string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, model.ErrRoomClosed
	}

	for _, id := range m.order {
		mr := m.rooms[id]
		if mr.room.name == name && mr.seats < m.cfg.MaxClients {
			mr.seats++
			return mr.room, nil
		}
	}

	id, err := m.newRoomID()
	if err != nil {
		return nil, err
	}
	r := New(id, name, m.cfg, m.deps)
	m.rooms[id] = &managedRoom{room: r, seats: 1}
	m.order = append(m.order, id)

	m.running.Add(1)
	go func() {
		defer m.running.Done()
		r.Run()
	}()

	return r, nil
}

// Release gives back a seat. The room is stopped once no seats remain.
func (m *Manager) Release(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[r.id]
	if !ok {
		return
	}
	mr.seats--
	if mr.seats > 0 {
		return
	}

	delete(m.rooms, r.id)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == r.id })
	r.Stop()
}

// Get returns a live room by id
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return mr.room, nil
}

// Info describes a live room by id
func (m *Manager) Info(id string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[id]
	if !ok {
		return Info{}, model.ErrRoomNotFound
	}
	return m.info(id, mr), nil
}

// List returns all live rooms in creation order
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.info(id, m.rooms[id]))
	}
	return out
}

func (m *Manager) info(id string, mr *managedRoom) Info {
	return Info{
		RoomID:     id,
		Name:       mr.room.name,
		Clients:    mr.seats,
		MaxClients: m.cfg.MaxClients,
	}
}

// Shutdown stops every room and waits for them to finish.
// No rooms can be reserved afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, id := range m.order {
		rooms = append(rooms, m.rooms[id].room)
	}
	m.rooms = make(map[string]*managedRoom)
	m.order = nil
	m.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}

	done := make(chan struct{})
	go func() {
		m.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newRoomID must be called with mu held
func (m *Manager) newRoomID() (string, error) {
	for range maxIDAttempts {
		id := m.deps.Random.String(roomIDLength, random.RoomIDAlphabet)
		if _, exists := m.rooms[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique room id after %d attempts", maxIDAttempts)
}
