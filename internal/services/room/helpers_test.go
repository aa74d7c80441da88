package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mcoot/openworld/internal/storage/memory"
)

type closeCall struct {
	code   int
	reason string
}

type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closes []closeCall
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes = append(c.closes, closeCall{code: code, reason: reason})
	return nil
}

func (c *fakeConn) Closes() []closeCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]closeCall(nil), c.closes...)
}

func (c *fakeConn) Messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, data := range c.sent {
		var m map[string]any
		_ = json.Unmarshal(data, &m)
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

type timeLeftUpdate struct {
	childID string
	seconds int
}

// recordingStore counts time-left writes and can be told to fail them
type recordingStore struct {
	*memory.Storage

	mu      sync.Mutex
	updates []timeLeftUpdate
	fail    bool
	gate    chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Storage: memory.New()}
}

func (s *recordingStore) UpdateChildTimeLeft(ctx context.Context, id string, seconds int) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	s.updates = append(s.updates, timeLeftUpdate{childID: id, seconds: seconds})
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return errors.New("store unavailable")
	}
	return s.Storage.UpdateChildTimeLeft(ctx, id, seconds)
}

func (s *recordingStore) Updates() []timeLeftUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]timeLeftUpdate(nil), s.updates...)
}

func (s *recordingStore) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Hold makes every time-left write wait until the returned channel is closed
func (s *recordingStore) Hold() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	return s.gate
}
