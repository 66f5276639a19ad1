package ws

import (
	"context"
	"errors"
	"sync"
)

var ErrClientClosed = errors.New("client closed")

// RuntimeClient binds one live connection to one identity for its whole
// lifetime. Writes go through a buffered channel and a single write pump;
// a client that cannot drain its buffer is closed rather than allowed to
// stall deliveries to anyone else.
type RuntimeClient struct {
	ctx        context.Context
	cancel     context.CancelFunc
	ws         *WebSocket
	identityID string
	out        chan []byte
	once       sync.Once
}

func NewClient(
	parent context.Context,
	ws *WebSocket,
	identityID string,
) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:        ctx,
		cancel:     cancel,
		ws:         ws,
		identityID: identityID,
		out:        make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) IdentityID() string { return c.identityID }

func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
		// Full buffer means a dead or hopelessly slow peer.
		c.Close()
		return ErrClientClosed
	}
}

func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				return
			}
		}
	}
}
