package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdentityRepository resolves verified credentials to canonical identities
// and scopes presence broadcasts to contacts.
type IdentityRepository interface {
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	// ListContacts returns the identity ids of the given identity's contacts.
	ListContacts(ctx context.Context, id string) ([]string, error)
}

// RoomStore is the authoritative room state held by the external store.
type RoomStore interface {
	// GetRoom returns the room with its full participant set.
	GetRoom(ctx context.Context, roomID uuid.UUID) (*Room, error)
}

// MessageRepository handles durable message state. Append assigns the
// canonical creation timestamp and fills it into msg before returning.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, messageID uuid.UUID) (*Message, error)
	// MarkRead inserts a read receipt; repeated inserts for the same
	// (message, identity) pair are a no-op.
	MarkRead(ctx context.Context, messageID uuid.UUID, identityID string, at time.Time) error
	Delete(ctx context.Context, messageID uuid.UUID) error
}
