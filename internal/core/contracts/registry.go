package contracts

import "context"

// Client represents the minimal interface required to address one live
// WebSocket connection bound to an identity.
type Client interface {
	IdentityID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
