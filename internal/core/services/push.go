package services

import (
	"chathub/internal/core/contracts"
	"context"
	"encoding/json"
)

// push marshals and delivers one event to one client. Delivery errors are
// the caller's to log; a slow or closed client never propagates further.
func push(ctx context.Context, c contracts.Client, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(ctx, data)
}
