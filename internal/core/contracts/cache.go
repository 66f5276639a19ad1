package contracts

import (
	"chathub/internal/core/domain"
	"context"
	"time"
)

// SummaryCache keeps the per-room last-message preview. Writes are
// best-effort: a cache failure never fails the send path.
type SummaryCache interface {
	SetLastMessage(ctx context.Context, roomID string, s domain.RoomSummary, ttl time.Duration) error
	// DropLastMessage demotes the preview after the message is deleted.
	DropLastMessage(ctx context.Context, roomID string) error
}
