package integrity

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/aretw0/arbitra/pkg/core"
)

const (
	// DefaultTimeout bounds a client exchange when ctx carries no deadline.
	DefaultTimeout = 10 * time.Second
	// DefaultOraclePayload is sent by the hash command when no payload is given.
	DefaultOraclePayload = "Hash this string please"
)

// Client talks to message endpoints and hash oracles.
type Client struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// MaxFrameSize bounds an Ack frame. Zero means DefaultMaxFrameSize.
	MaxFrameSize int
}

// NewClient creates a client with default timeouts.
func NewClient(logger *slog.Logger) *Client {
	return &Client{Timeout: DefaultTimeout, Logger: logger}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// exchangeDeadline is the earlier of the ctx deadline and now plus timeout.
func exchangeDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.timeout()}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// Conn is an open connection to a message endpoint.
type Conn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	timeout time.Duration
	stop    func() bool
	logger  *slog.Logger
}

// Dial opens a connection to a message endpoint. Cancelling ctx closes it.
func (c *Client) Dial(ctx context.Context, addr string) (*Conn, error) {
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &Conn{
		conn:    conn,
		scanner: newFrameScanner(conn, c.MaxFrameSize),
		timeout: c.timeout(),
		stop:    context.AfterFunc(ctx, func() { _ = conn.Close() }),
		logger:  c.logger().With("addr", addr),
	}, nil
}

// Send writes one message and waits for its Ack.
func (c *Conn) Send(ctx context.Context, m Message) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, err
	}
	if err := c.conn.SetDeadline(exchangeDeadline(ctx, c.timeout)); err != nil {
		return Ack{}, err
	}
	if err := writeFrame(c.conn, m); err != nil {
		return Ack{}, err
	}
	c.logger.Debug("message sent", "type", m.Header.Type, "hash", m.Header.Hash)

	if !c.scanner.Scan() {
		err := c.scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Ack{}, fmt.Errorf("failed to read ack: %w", err)
	}
	var ack Ack
	if err := json.Unmarshal(c.scanner.Bytes(), &ack); err != nil {
		return Ack{}, fmt.Errorf("%w: bad ack: %v", core.ErrInvalidMessage, err)
	}
	return ack, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.stop()
	return c.conn.Close()
}

// SendMessage delivers one message on a fresh connection. A mismatch Ack is
// returned together with an error wrapping core.ErrDigestMismatch.
func (c *Client) SendMessage(ctx context.Context, addr string, m Message) (Ack, error) {
	conn, err := c.Dial(ctx, addr)
	if err != nil {
		return Ack{}, err
	}
	defer conn.Close()

	ack, err := conn.Send(ctx, m)
	if err != nil {
		return Ack{}, err
	}
	return ack, ack.Err()
}

// Err converts a non-verified Ack into an error.
func (a Ack) Err() error {
	switch a.Status {
	case OutcomeVerified:
		return nil
	case OutcomeMismatch:
		return fmt.Errorf("%w: peer computed %s", core.ErrDigestMismatch, a.Hash)
	case OutcomeInvalid:
		return fmt.Errorf("%w: %s", core.ErrInvalidMessage, a.Error)
	default:
		return fmt.Errorf("message %s: %s", a.Status, a.Error)
	}
}

// RequestDigest sends payload to a hash oracle and returns the first digest
// it answers with.
func (c *Client) RequestDigest(ctx context.Context, addr string, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("empty payload")
	}
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if err := conn.SetDeadline(exchangeDeadline(ctx, c.timeout())); err != nil {
		return "", err
	}

	if _, err := conn.Write(payload); err != nil {
		return "", fmt.Errorf("failed to send payload: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	buf := make([]byte, DigestLength)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return "", fmt.Errorf("failed to read digest: %w", err)
	}
	digest := string(buf)
	c.logger().Debug("digest received", "addr", addr, "digest", digest)
	return digest, nil
}
