package services

import (
	"chathub/internal/core/domain"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeClient struct {
	mu     sync.Mutex
	id     string
	sent   [][]byte
	closed bool
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) IdentityID() string { return c.id }

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("client closed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// events decodes every frame the client received into generic maps.
func (c *fakeClient) events() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, data := range c.sent {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeClient) eventTypes() []string {
	var out []string
	for _, ev := range c.events() {
		if t, ok := ev["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}

func (c *fakeClient) hasEvent(evType string) bool {
	for _, t := range c.eventTypes() {
		if t == evType {
			return true
		}
	}
	return false
}

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
	contacts   map[string][]string
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{
		identities: make(map[string]*domain.Identity),
		contacts:   make(map[string][]string),
	}
}

func (r *fakeIdentityRepo) add(id, name string, contacts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[id] = &domain.Identity{ID: id, DisplayName: name}
	r.contacts[id] = contacts
}

func (r *fakeIdentityRepo) GetIdentity(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return identity, nil
}

func (r *fakeIdentityRepo) ListContacts(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contacts[id], nil
}

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*domain.Room
	err   error
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[uuid.UUID]*domain.Room)}
}

func (s *fakeRoomStore) add(room *domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

func (s *fakeRoomStore) GetRoom(_ context.Context, roomID uuid.UUID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	messages   map[uuid.UUID]*domain.Message
	reads      map[uuid.UUID]map[string]time.Time
	appendErr  error
	markErr    error
	deleteErr  error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[uuid.UUID]*domain.Message),
		reads:    make(map[uuid.UUID]map[string]time.Time),
	}
}

func (r *fakeMessageRepo) Append(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	msg.CreatedAt = time.Now()
	stored := *msg
	r.messages[msg.ID] = &stored
	r.reads[msg.ID] = map[string]time.Time{msg.SenderID: msg.CreatedAt}
	return nil
}

func (r *fakeMessageRepo) GetMessage(_ context.Context, messageID uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[messageID]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	out := *msg
	return &out, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, messageID uuid.UUID, identityID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	set := r.reads[messageID]
	if set == nil {
		set = make(map[string]time.Time)
		r.reads[messageID] = set
	}
	if _, ok := set[identityID]; !ok {
		set[identityID] = at
	}
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, messageID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.messages[messageID]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.messages, messageID)
	return nil
}

func (r *fakeMessageRepo) readCount(messageID uuid.UUID, identityID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reads[messageID][identityID]; ok {
		return 1
	}
	return 0
}

type fakeSummaryCache struct {
	mu      sync.Mutex
	set     map[string]domain.RoomSummary
	dropped []string
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{set: make(map[string]domain.RoomSummary)}
}

func (c *fakeSummaryCache) SetLastMessage(_ context.Context, roomID string, s domain.RoomSummary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set[roomID] = s
	return nil
}

func (c *fakeSummaryCache) DropLastMessage(_ context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.set, roomID)
	c.dropped = append(c.dropped, roomID)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
