// Package hubclient provides the client library for the hub daemon's
// control socket: one JSON object per line over TCP, with correlated
// request/response pairs and unsolicited server events multiplexed on the
// same connection.
//
// # Architecture
//
//   - Client: connection lifecycle — dial, failure detection, a single
//     guarded reconnect attempt per disconnect, terminal Close
//   - conn: one live connection — serialized writes, a dedicated reader
//     goroutine, per-connection correlation ids (req-1, req-2, …)
//   - correlator: single-owner goroutine holding the pending-request table,
//     so register-before-send and delivery never race
//   - events: a buffered FIFO channel carrying server events and synthetic
//     disconnect events to one subscriber, without ever blocking the reader
//
// Basic usage:
//
//	client := hubclient.New(hubclient.DefaultConfig("127.0.0.1:4456"))
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	go func() {
//	    for env := range client.Events() {
//	        fmt.Printf("event %s\n", env.Event)
//	    }
//	}()
//
//	status, err := client.Status()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("hub %s connected=%v\n", status.Host, status.Connected)
//
// Every request resolves exactly once: with the matching response, with
// ErrTimeout after the request timeout, with a *ServerError when the hub
// answers ok:false, or with ErrClosed when the connection dies underneath
// it. A malformed inbound frame is logged and skipped; it never terminates
// the connection or surfaces to any caller.
package hubclient
