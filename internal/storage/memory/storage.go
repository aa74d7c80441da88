package memory

import (
	"context"
	"sync"

	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

// Storage is an in-memory implementation of the account store
type Storage struct {
	mu sync.RWMutex

	families    map[string]model.Family
	parentIndex map[string]string
	children    map[string]model.Child
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		families:    make(map[string]model.Family),
		parentIndex: make(map[string]string),
		children:    make(map[string]model.Child),
	}
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

// Family operations

func (s *Storage) SaveFamily(ctx context.Context, family *model.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[family.ID] = *family
	s.parentIndex[family.ParentUserID] = family.ID
	return nil
}

func (s *Storage) GetFamily(ctx context.Context, id string) (*model.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	family, ok := s.families[id]
	if !ok {
		return nil, model.ErrFamilyNotFound
	}
	return &family, nil
}

func (s *Storage) GetFamilyByParent(ctx context.Context, parentUserID string) (*model.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.parentIndex[parentUserID]
	if !ok {
		return nil, model.ErrFamilyNotFound
	}
	family, ok := s.families[id]
	if !ok {
		return nil, model.ErrFamilyNotFound
	}
	return &family, nil
}

// Child operations

func (s *Storage) SaveChild(ctx context.Context, child *model.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[child.ID] = *child
	return nil
}

func (s *Storage) GetChild(ctx context.Context, id string) (*model.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	child, ok := s.children[id]
	if !ok {
		return nil, model.ErrChildNotFound
	}
	return &child, nil
}

func (s *Storage) UpdateChildTimeLeft(ctx context.Context, id string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	child, ok := s.children[id]
	if !ok {
		return model.ErrChildNotFound
	}
	child.TimeLeftDay = seconds
	s.children[id] = child
	return nil
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
