package hubclient

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codefionn/hublink/internal/logger"
	"github.com/codefionn/hublink/internal/protocol"
)

const (
	// maxFrameSize bounds a single inbound frame.
	maxFrameSize = 1024 * 1024

	readBufferSize = 64 * 1024
)

// conn is one live hub connection: it owns the transport, the reader loop,
// and the per-connection correlation state. The enclosing Client creates a
// fresh conn per (re)connect; correlation ids restart at req-1 on each.
type conn struct {
	nc      net.Conn
	log     *logger.Logger
	events  chan<- protocol.Envelope
	timeout time.Duration

	writeMu sync.Mutex
	corr    *correlator
	nextID  atomic.Uint64
	closed  atomic.Bool

	// onClose is invoked exactly once after teardown, from whichever side
	// lost the race (reader failure or explicit close).
	onClose func(err error)
}

func newConn(nc net.Conn, events chan<- protocol.Envelope, timeout time.Duration, log *logger.Logger, onClose func(error)) *conn {
	return &conn{
		nc:      nc,
		log:     log,
		events:  events,
		timeout: timeout,
		corr:    newCorrelator(),
		onClose: onClose,
	}
}

// start launches the reader loop. Must be called exactly once.
func (c *conn) start() {
	go c.readLoop()
}

func (c *conn) nextRequestID() string {
	return fmt.Sprintf("req-%d", c.nextID.Add(1))
}

// request issues one correlated request and blocks until the matching
// response arrives, the timeout elapses, or the connection dies. Safe for
// any number of concurrent callers.
func (c *conn) request(action string, fields map[string]any) (*protocol.Envelope, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	id := c.nextRequestID()
	frame, err := protocol.EncodeRequest(id, action, fields)
	if err != nil {
		return nil, err
	}

	// Register before sending so a response can never arrive without a
	// waiter, however fast the server is.
	waiter, ok := c.corr.register(id)
	if !ok {
		return nil, ErrClosed
	}

	c.writeMu.Lock()
	_, err = c.nc.Write(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.corr.remove(id)
		return nil, fmt.Errorf("hublink: write %s request: %w", action, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case env, ok := <-waiter:
		if !ok {
			return nil, ErrClosed
		}
		if env.Failed() {
			msg := env.Error
			if msg == "" {
				msg = "hub request failed"
			}
			return nil, &ServerError{Message: msg}
		}
		return env, nil
	case <-timer.C:
		// Deregister so a late response for this id is dropped silently.
		c.corr.remove(id)
		return nil, ErrTimeout
	}
}

// readLoop pulls frames until the stream ends. It runs for the lifetime of
// the connection and is the only reader of the transport.
func (c *conn) readLoop() {
	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, 0, readBufferSize), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		env, err := protocol.Decode(line)
		if err != nil {
			// One corrupt frame never kills the stream.
			c.log.Warn("dropping malformed frame: %v", err)
			continue
		}

		if env.ID != "" {
			c.corr.deliver(env)
			continue
		}
		if env.IsEvent() {
			c.dispatchEvent(*env)
		}
	}

	c.teardown(scanner.Err())
}

// dispatchEvent forwards an event without ever blocking the reader. Events
// beyond the subscriber's backlog are dropped, not queued unboundedly.
func (c *conn) dispatchEvent(env protocol.Envelope) {
	select {
	case c.events <- env:
	default:
		c.log.Warn("event subscriber lagging, dropping %q event", env.Event)
	}
}

// close tears the connection down on behalf of the owner. Idempotent.
func (c *conn) close() {
	c.teardown(nil)
}

// teardown runs exactly once per connection, whether triggered by the reader
// loop or an explicit close: it shuts the transport both ways, emits a single
// disconnect event, and fails every pending request with ErrClosed.
func (c *conn) teardown(err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	_ = c.nc.Close()
	c.dispatchEvent(protocol.DisconnectEvent(err))
	c.corr.stop()

	if err != nil {
		c.log.Info("connection lost: %v", err)
	} else {
		c.log.Debug("connection closed")
	}
	if c.onClose != nil {
		c.onClose(err)
	}
}
