package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"murmur/internal/domain"
)

// Client is one live connection to the relay. Incoming frames are
// delivered on a buffered channel; frames arriving faster than the caller
// drains them are dropped rather than blocking the read loop, matching the
// relay's own fire-and-forget semantics.
type Client struct {
	conn     net.Conn
	incoming chan domain.Envelope

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
}

// Dial connects to a relay at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:     conn,
		incoming: make(chan domain.Envelope, 256),
	}
	go c.readLoop()
	return c, nil
}

// Register binds this connection to publicKey at the relay.
func (c *Client) Register(ctx context.Context, publicKey string) error {
	return c.Send(ctx, domain.Envelope{Type: domain.EnvRegister, PublicKey: publicKey})
}

// Send writes one envelope frame. Fire-and-forget: a delivered frame says
// nothing about whether any recipient was online.
func (c *Client) Send(ctx context.Context, env domain.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.ErrTransportUnavailable
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return domain.ErrTransportUnavailable
	}
	return nil
}

// Incoming returns the channel of frames addressed to our registered key.
// It is closed when the connection drops.
func (c *Client) Incoming() <-chan domain.Envelope { return c.incoming }

// Close shuts the connection down. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.conn.Close()
		close(c.incoming)
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), maxFrame)
	for scanner.Scan() {
		env, err := domain.ParseEnvelope(scanner.Bytes())
		if err != nil {
			continue
		}
		select {
		case c.incoming <- env:
		default:
		}
	}
}

// Compile-time assertion that Client implements domain.RelayClient.
var _ domain.RelayClient = (*Client)(nil)
