package services

import (
	"chathub/internal/app/registry"
	"chathub/internal/core/contracts"
	"chathub/internal/core/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RoomManager guards the live subscription sets against the authoritative
// participant lists held by the external store. Subscription is a view
// concern: joining and leaving never mutates the room itself.
type RoomManager struct {
	store  domain.RoomStore
	roster *registry.Registry
	log    *slog.Logger
}

func NewRoomManager(log *slog.Logger, store domain.RoomStore, roster *registry.Registry) *RoomManager {
	return &RoomManager{log: log, store: store, roster: roster}
}

// Join subscribes the connection to the room's live set. The room must
// exist and the connection's identity must be a participant. Idempotent:
// re-joining is a no-op success.
func (m *RoomManager) Join(ctx context.Context, c contracts.Client, roomID string) error {
	rid, err := uuid.Parse(roomID)
	if err != nil {
		return domain.ErrInvalidRoomID
	}
	room, err := m.store.GetRoom(ctx, rid)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if !room.HasParticipant(c.IdentityID()) {
		return domain.ErrNotAParticipant
	}
	m.roster.Subscribe(roomID, c)
	m.log.InfoContext(ctx, "rooms - joined", "room_id", roomID, "identity_id", c.IdentityID())
	return nil
}

// Leave removes the connection from the room's live set and tells the
// remaining subscribers that this identity left the room view. Idempotent;
// leaving an unjoined room does nothing.
func (m *RoomManager) Leave(ctx context.Context, c contracts.Client, roomID string) {
	if !m.roster.Unsubscribe(roomID, c) {
		return
	}
	data, _ := json.Marshal(domain.RoomLeavePush{
		Type:       domain.PushRoomLeave,
		RoomID:     roomID,
		IdentityID: c.IdentityID(),
	})
	m.roster.Broadcast(ctx, roomID, data, c.IdentityID())
	m.log.InfoContext(ctx, "rooms - left", "room_id", roomID, "identity_id", c.IdentityID())
}

// DropAll silently detaches the connection from every room during
// eviction. No room-leave fan-out: the offline broadcast that follows is
// the signal observers get.
func (m *RoomManager) DropAll(ctx context.Context, c contracts.Client) {
	rooms := m.roster.DropAll(c)
	if len(rooms) > 0 {
		m.log.InfoContext(ctx, "rooms - dropped subscriptions", "identity_id", c.IdentityID(), "rooms", len(rooms))
	}
}
