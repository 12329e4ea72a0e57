package hubclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/hublink/internal/protocol"
)

// hubStub is a minimal scripted hub listening on a loopback port.
type hubStub struct {
	t       *testing.T
	ln      net.Listener
	respond func(req map[string]any) map[string]any

	mu      sync.Mutex
	accepts int
	conns   []net.Conn
}

// okResponder acknowledges every request with ok:true and echoes its fields.
func okResponder(req map[string]any) map[string]any {
	return map[string]any{
		"id":   req["id"],
		"type": req["type"],
		"ok":   true,
		"data": map[string]any{"host": "stub", "connected": true},
	}
}

func startHubStub(t *testing.T, respond func(req map[string]any) map[string]any) *hubStub {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &hubStub{t: t, ln: ln, respond: respond}
	go s.acceptLoop()
	t.Cleanup(s.close)
	return s
}

func (s *hubStub) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepts++
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.serve(conn)
	}
}

func (s *hubStub) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		resp := s.respond(req)
		if resp == nil {
			continue
		}
		encoded, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		if _, err := conn.Write(append(encoded, '\n')); err != nil {
			return
		}
	}
}

func (s *hubStub) addr() string {
	return s.ln.Addr().String()
}

func (s *hubStub) acceptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepts
}

// dropConnections closes every accepted connection, simulating a hub crash.
func (s *hubStub) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

func (s *hubStub) close() {
	s.ln.Close()
	s.dropConnections()
}

func newTestClient(s *hubStub) *Client {
	cfg := DefaultConfig(s.addr())
	cfg.RequestTimeout = time.Second
	cfg.ReconnectDelay = 50 * time.Millisecond
	return New(cfg)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// TestClient_ConnectAndRequest covers the basic lifecycle
func TestClient_ConnectAndRequest(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	defer client.Close()

	require.NoError(t, client.Connect())
	assert.Equal(t, StateConnected, client.State())
	assert.True(t, client.IsConnected())

	env, err := client.Request("status", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"stub","connected":true}`, string(env.Data))
}

// TestClient_ConnectIsNoOpWhenLive verifies the connecting/connected guard
func TestClient_ConnectIsNoOpWhenLive(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	defer client.Close()

	require.NoError(t, client.Connect())
	require.NoError(t, client.Connect())
	require.NoError(t, client.Connect())

	// Give a straggling dial a chance to land before counting.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, stub.acceptCount())
}

// TestClient_RequestWhileDisconnected verifies the fast failure path
func TestClient_RequestWhileDisconnected(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	defer client.Close()

	_, err := client.Request("status", nil)
	require.ErrorIs(t, err, ErrNotConnected)
}

// TestClient_ReconnectAfterDrop verifies automatic recovery after the hub
// drops the connection
func TestClient_ReconnectAfterDrop(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	defer client.Close()

	require.NoError(t, client.Connect())
	waitFor(t, time.Second, func() bool { return stub.acceptCount() == 1 })

	stub.dropConnections()

	waitFor(t, 2*time.Second, func() bool {
		return stub.acceptCount() == 2 && client.State() == StateConnected
	})

	_, err := client.Request("status", nil)
	require.NoError(t, err)
}

// TestClient_DisconnectEventOnDrop verifies subscribers observe the drop
func TestClient_DisconnectEventOnDrop(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	defer client.Close()

	require.NoError(t, client.Connect())
	stub.dropConnections()

	deadline := time.After(time.Second)
	for {
		select {
		case env := <-client.Events():
			if env.Event == protocol.EventDisconnect {
				return
			}
		case <-deadline:
			t.Fatal("no disconnect event after drop")
		}
	}
}

// TestClient_CloseSuppressesReconnect verifies that an explicit close is
// terminal: no reconnect ever fires afterwards
func TestClient_CloseSuppressesReconnect(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)

	require.NoError(t, client.Connect())
	waitFor(t, time.Second, func() bool { return stub.acceptCount() == 1 })

	require.NoError(t, client.Close())
	assert.Equal(t, StateClosed, client.State())

	// Well past several reconnect delays: still exactly one accept.
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 1, stub.acceptCount())

	assert.ErrorIs(t, client.Connect(), ErrClosed)
	_, err := client.Request("status", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

// TestClient_CloseIdempotentConcurrent verifies racing closes are safe
func TestClient_CloseIdempotentConcurrent(t *testing.T) {
	stub := startHubStub(t, okResponder)
	client := newTestClient(stub)
	require.NoError(t, client.Connect())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Close())
		}()
	}
	wg.Wait()
	assert.Equal(t, StateClosed, client.State())
}

// TestClient_CloseRacingDrop verifies close() racing a read failure still
// yields a single teardown and no reconnect
func TestClient_CloseRacingDrop(t *testing.T) {
	stub := startHubStub(t, okResponder)
	cfg := DefaultConfig(stub.addr())
	cfg.RequestTimeout = time.Second
	// Wide enough that Close always lands before a reconnect could fire.
	cfg.ReconnectDelay = time.Second
	client := New(cfg)

	require.NoError(t, client.Connect())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stub.dropConnections()
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, client.Close())
	}()
	wg.Wait()

	assert.Equal(t, StateClosed, client.State())
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, stub.acceptCount())
}

// TestClient_ReconnectSingleAttempt verifies overlapping failure signals arm
// at most one reconnect attempt per delay window
func TestClient_ReconnectSingleAttempt(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	cfg := DefaultConfig("127.0.0.1:0")
	cfg.ReconnectDelay = 200 * time.Millisecond
	cfg.Dial = func(address string) (net.Conn, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("dial refused")
	}
	client := New(cfg)
	defer client.Close()

	require.Error(t, client.Connect())

	// Several extra triggers while one attempt is already scheduled.
	_, _ = client.Request("status", nil)
	_, _ = client.Request("status", nil)

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return attempts
	}
	assert.Equal(t, 1, count())

	// After one delay window, exactly one scheduled attempt has run.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 2, count())
}

// TestClient_PendingFailOnDrop verifies in-flight requests resolve with
// ErrClosed when the hub dies mid-request
func TestClient_PendingFailOnDrop(t *testing.T) {
	requests := make(chan struct{}, 1)
	stub := startHubStub(t, func(req map[string]any) map[string]any {
		select {
		case requests <- struct{}{}:
		default:
		}
		return nil // never answer
	})
	client := newTestClient(stub)
	defer client.Close()

	require.NoError(t, client.Connect())

	done := make(chan error, 1)
	go func() {
		_, err := client.Request("status", nil)
		done <- err
	}()

	<-requests
	stub.dropConnections()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("in-flight request not failed on drop")
	}
}

// TestState_String covers the state labels
func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
