package hubclient

import (
	"github.com/codefionn/hublink/internal/protocol"
)

// correlator owns the pending-request table for one connection. All access
// goes through its mailbox, so registration, delivery, expiry, and teardown
// never race: a waiter registered before the frame went out is guaranteed to
// be visible to the run loop by the time the response arrives.
type correlator struct {
	ops  chan corrOp
	done chan struct{}
}

type corrOpKind int

const (
	opRegister corrOpKind = iota
	opDeliver
	opRemove
)

type corrOp struct {
	kind   corrOpKind
	id     string
	env    *protocol.Envelope
	waiter chan *protocol.Envelope
	ack    chan struct{}
}

func newCorrelator() *correlator {
	c := &correlator{
		ops:  make(chan corrOp),
		done: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *correlator) run() {
	pending := make(map[string]chan *protocol.Envelope)
	for {
		select {
		case op := <-c.ops:
			switch op.kind {
			case opRegister:
				pending[op.id] = op.waiter
				close(op.ack)
			case opDeliver:
				if waiter, ok := pending[op.id]; ok {
					delete(pending, op.id)
					waiter <- op.env
				}
				// no waiter: late or unknown response, dropped
			case opRemove:
				delete(pending, op.id)
				close(op.ack)
			}
		case <-c.done:
			for id, waiter := range pending {
				delete(pending, id)
				close(waiter)
			}
			return
		}
	}
}

// register installs a one-shot waiter for id. It returns false when the
// correlator has already shut down.
func (c *correlator) register(id string) (<-chan *protocol.Envelope, bool) {
	op := corrOp{
		kind:   opRegister,
		id:     id,
		waiter: make(chan *protocol.Envelope, 1),
		ack:    make(chan struct{}),
	}
	select {
	case c.ops <- op:
	case <-c.done:
		return nil, false
	}
	select {
	case <-op.ack:
	case <-c.done:
		return nil, false
	}
	return op.waiter, true
}

// deliver hands an inbound response to its waiter, if one is still
// registered. Responses with no waiter are discarded silently.
func (c *correlator) deliver(env *protocol.Envelope) {
	select {
	case c.ops <- corrOp{kind: opDeliver, id: env.ID, env: env}:
	case <-c.done:
	}
}

// remove drops the waiter for id, so that a late response is discarded.
func (c *correlator) remove(id string) {
	op := corrOp{kind: opRemove, id: id, ack: make(chan struct{})}
	select {
	case c.ops <- op:
	case <-c.done:
		return
	}
	select {
	case <-op.ack:
	case <-c.done:
	}
}

// stop closes every registered waiter and refuses further operations.
// Waiters observe the closed channel as ErrClosed. Idempotent via the
// caller's teardown guard; stop itself must only be called once.
func (c *correlator) stop() {
	close(c.done)
}
