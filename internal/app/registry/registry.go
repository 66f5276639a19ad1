package registry

import (
	"chathub/internal/core/contracts"
	"context"
	"sync"
)

// Registry holds the live subscription tables: which connections are
// currently joined to which rooms. It is in-memory only and rebuilt by
// clients re-joining after a reconnect. Mutations are scoped per call
// under one lock; sets for different rooms are independent data.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]contracts.Client // room id → identity id → client
	joined map[contracts.Client]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]contracts.Client),
		joined: make(map[contracts.Client]map[string]struct{}),
	}
}

// Subscribe adds the connection to the room's live set. Reports whether
// the membership is new; re-subscribing is a no-op. A different connection
// for the same identity takes over the slot, so a displaced connection's
// later cleanup cannot erase its replacement.
func (r *Registry) Subscribe(roomID string, c contracts.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.rooms[roomID]
	if set == nil {
		set = make(map[string]contracts.Client)
		r.rooms[roomID] = set
	}
	old, held := set[c.IdentityID()]
	if held && old == c {
		return false
	}
	if held {
		if j := r.joined[old]; j != nil {
			delete(j, roomID)
			if len(j) == 0 {
				delete(r.joined, old)
			}
		}
	}
	set[c.IdentityID()] = c
	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][roomID] = struct{}{}
	return !held
}

// Unsubscribe removes the connection from the room's live set. Reports
// whether it was subscribed; removing an absent member is a no-op.
func (r *Registry) Unsubscribe(roomID string, c contracts.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.rooms[roomID]
	if set == nil || set[c.IdentityID()] != c {
		return false
	}
	delete(set, c.IdentityID())
	if len(set) == 0 {
		delete(r.rooms, roomID)
	}
	if j := r.joined[c]; j != nil {
		delete(j, roomID)
		if len(j) == 0 {
			delete(r.joined, c)
		}
	}
	return true
}

// DropAll detaches the connection from every room it had joined and
// returns those room ids. Called synchronously during eviction, before
// the offline broadcast fires.
func (r *Registry) DropAll(c contracts.Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for roomID := range r.joined[c] {
		if set := r.rooms[roomID]; set != nil && set[c.IdentityID()] == c {
			delete(set, c.IdentityID())
			if len(set) == 0 {
				delete(r.rooms, roomID)
			}
		}
		out = append(out, roomID)
	}
	delete(r.joined, c)
	return out
}

// Broadcast delivers data to every connection subscribed to the room,
// skipping exceptID when non-empty.
func (r *Registry) Broadcast(ctx context.Context, roomID string, data []byte, exceptID string) {
	r.mu.RLock()
	clients := make([]contracts.Client, 0, len(r.rooms[roomID]))
	for id, c := range r.rooms[roomID] {
		if exceptID != "" && id == exceptID {
			continue
		}
		clients = append(clients, c)
	}
	r.mu.RUnlock()
	for _, c := range clients {
		_ = c.Send(ctx, data)
	}
}

// Subscribers returns the identity ids currently joined to the room.
func (r *Registry) Subscribers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms[roomID]))
	for id := range r.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

// IsSubscribed reports whether the identity has a connection joined to
// the room.
func (r *Registry) IsSubscribed(roomID, identityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.rooms[roomID]
	_, ok := set[identityID]
	return ok
}
