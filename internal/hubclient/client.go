package hubclient

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/codefionn/hublink/internal/logger"
	"github.com/codefionn/hublink/internal/protocol"
)

// State represents the current state of the client connection
type State int

const (
	// StateDisconnected indicates the client is not connected
	StateDisconnected State = iota
	// StateConnecting indicates a connection attempt is in flight
	StateConnecting
	// StateConnected indicates a live connection
	StateConnected
	// StateClosed indicates the client was closed explicitly; terminal
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// DefaultRequestTimeout is the per-request response deadline.
	DefaultRequestTimeout = 6 * time.Second
	// DefaultReconnectDelay is the fixed delay before a reconnect attempt.
	DefaultReconnectDelay = 2 * time.Second
	// DefaultConnectTimeout bounds the initial TCP dial.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultEventBuffer is the subscriber backlog before events are dropped.
	DefaultEventBuffer = 256
)

// Config holds client configuration
type Config struct {
	// Address is the resolved host:port of the hub socket.
	Address string
	// ConnectTimeout bounds the TCP dial.
	ConnectTimeout time.Duration
	// RequestTimeout is the per-request response deadline.
	RequestTimeout time.Duration
	// ReconnectDelay is the fixed delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// EventBuffer sizes the event channel.
	EventBuffer int
	// Logger receives diagnostics; nil disables logging.
	Logger *logger.Logger
	// Dial overrides the transport dialer, for tests.
	Dial func(address string) (net.Conn, error)
}

// DefaultConfig returns a default configuration for the given address
func DefaultConfig(address string) Config {
	return Config{
		Address:        address,
		ConnectTimeout: DefaultConnectTimeout,
		RequestTimeout: DefaultRequestTimeout,
		ReconnectDelay: DefaultReconnectDelay,
		EventBuffer:    DefaultEventBuffer,
	}
}

// Client manages the connection lifecycle to the hub daemon: dialing, the
// per-connection reader, failure detection, and a single guarded reconnect
// attempt after each unexpected disconnect. A Client survives any number of
// reconnects; Close is terminal and suppresses reconnection for good.
type Client struct {
	cfg    Config
	log    *logger.Logger
	events chan protocol.Envelope

	mu               sync.Mutex
	state            State
	conn             *conn
	reconnectPending bool
	reconnectTimer   *time.Timer
}

// New creates a client for the given configuration. Zero-valued fields fall
// back to the defaults. The client starts disconnected; call Connect.
func New(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Client{
		cfg:    cfg,
		log:    cfg.Logger.WithPrefix("hubclient"),
		events: make(chan protocol.Envelope, cfg.EventBuffer),
		state:  StateDisconnected,
	}
}

// Events returns the channel carrying server events and synthesized
// disconnect events, in arrival order. The channel spans reconnects and is
// never closed; after Close the final disconnect event is the last delivery.
func (c *Client) Events() <-chan protocol.Envelope {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected returns true if the client has a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect dials the hub and starts the reader loop. It is a no-op while a
// connection attempt is in flight or a live connection exists, and fails
// with ErrClosed after an explicit Close. A failed dial schedules a
// reconnect attempt before returning the error.
func (c *Client) Connect() error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateConnected:
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	nc, err := c.dial()
	if err != nil {
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()
		return fmt.Errorf("hublink: connect %s: %w", c.cfg.Address, err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Closed while the dial was in flight.
		c.mu.Unlock()
		_ = nc.Close()
		return ErrClosed
	}
	var cn *conn
	cn = newConn(nc, c.events, c.cfg.RequestTimeout, c.log, func(err error) {
		c.connLost(cn, err)
	})
	c.conn = cn
	c.state = StateConnected
	c.mu.Unlock()

	cn.start()
	c.log.Info("connected to %s", c.cfg.Address)
	return nil
}

func (c *Client) dial() (net.Conn, error) {
	if c.cfg.Dial != nil {
		return c.cfg.Dial(c.cfg.Address)
	}
	nc, err := net.DialTimeout("tcp", c.cfg.Address, c.cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return nc, nil
}

// Request issues a correlated request on the current connection. Requests
// while disconnected fail with ErrNotConnected and nudge the reconnect
// schedule; requests after Close fail with ErrClosed.
func (c *Client) Request(action string, fields map[string]any) (*protocol.Envelope, error) {
	c.mu.Lock()
	state := c.state
	cn := c.conn
	if state != StateClosed && cn == nil {
		c.scheduleReconnectLocked()
	}
	c.mu.Unlock()

	if state == StateClosed {
		return nil, ErrClosed
	}
	if cn == nil {
		return nil, ErrNotConnected
	}
	return cn.request(action, fields)
}

// Close shuts the client down for good: the transport is closed both ways,
// every pending request fails with ErrClosed, and no reconnect will ever be
// scheduled again. Idempotent and safe to call concurrently.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	c.reconnectPending = false
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	cn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cn != nil {
		cn.close()
	}
	c.log.Info("client closed")
	return nil
}

// connLost handles teardown notification from a conn. Stale notifications
// (the conn was already replaced or released by Close) are ignored, which is
// what keeps an explicit close from racing a reconnect into existence.
func (c *Client) connLost(cn *conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != cn {
		return
	}
	c.conn = nil
	if c.state == StateClosed {
		return
	}
	c.state = StateDisconnected
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms a single reconnect timer. Callers hold c.mu.
// The pending flag guarantees overlapping failures arm at most one attempt.
func (c *Client) scheduleReconnectLocked() {
	if c.reconnectPending || c.state != StateDisconnected {
		return
	}
	c.reconnectPending = true
	c.log.Info("reconnecting in %s", c.cfg.ReconnectDelay)
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		c.reconnectPending = false
		closed := c.state == StateClosed
		c.mu.Unlock()
		if closed {
			return
		}
		if err := c.Connect(); err != nil {
			c.log.Warn("reconnect failed: %v", err)
		}
	})
}
