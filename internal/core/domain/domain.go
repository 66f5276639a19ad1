package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the stable, externally-issued user reference. The identity
// store owns it; the hub never mutates it.
type Identity struct {
	ID          string
	DisplayName string
	AvatarRef   string
}

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

type RoomKind string

const (
	RoomDirect RoomKind = "direct"
	RoomGroup  RoomKind = "group"
)

// Room is the authoritative participant list held by the external store.
// The live subscription set is not part of this type.
type Room struct {
	ID           uuid.UUID
	Kind         RoomKind
	Name         string
	OwnerID      string
	Participants []string
}

func (r *Room) HasParticipant(identityID string) bool {
	for _, p := range r.Participants {
		if p == identityID {
			return true
		}
	}
	return false
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

type ReadReceipt struct {
	IdentityID string    `json:"identity_id"`
	ReadAt     time.Time `json:"read_at"`
}

// Message is immutable after persistence except for read-by growth.
// CreatedAt is assigned by the store at append time and is the ordering
// key within a room.
type Message struct {
	ID        uuid.UUID     `json:"id"`
	RoomID    uuid.UUID     `json:"room_id"`
	SenderID  string        `json:"sender_id"`
	Content   string        `json:"content"`
	Type      MessageType   `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
	ReadBy    []ReadReceipt `json:"read_by,omitempty"`
}

// RoomSummary is the cached last-message preview kept per room. It is
// refreshed on append and demoted when the message is deleted.
type RoomSummary struct {
	MessageID string      `json:"message_id"`
	SenderID  string      `json:"sender_id"`
	Preview   string      `json:"preview"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}
