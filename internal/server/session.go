// Package server implements the per-connection state machine described in
// spec §3/§4: authentication, transaction buffering, subscription mode,
// and command dispatch. Grounded on the teacher's accept-loop shape in
// core/network.go (NewNode's host/stream wiring, generalized here from a
// libp2p host to a plain net.Listener) and core/base_node.go's thin
// ListenAndServe/Close wrapper.
package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"synnergy-kv/internal/auth"
	"synnergy-kv/internal/resp"
)

var sessionSeq int64

// Session is one client connection's state.
type Session struct {
	id   string
	conn net.Conn

	writeMu sync.Mutex
	bw      *bufio.Writer

	srv *Server

	mu            sync.Mutex
	authenticated bool
	currentUser   string
	tx            *transaction
	subs          map[string]struct{}

	isReplica bool // true once PSYNC promoted this connection to a replica sink
}

type transaction struct {
	queued []*resp.Command
}

func newSession(conn net.Conn, srv *Server) *Session {
	id := fmt.Sprintf("conn-%d", atomic.AddInt64(&sessionSeq, 1))
	return &Session{
		id:          id,
		conn:        conn,
		bw:          bufio.NewWriter(conn),
		srv:         srv,
		currentUser: auth.DefaultUser,
		subs:        make(map[string]struct{}),
	}
}

// ID identifies this session, satisfying store.Subscriber and
// replication.Sink.
func (s *Session) ID() string { return s.id }

// Write sends raw bytes directly to the socket, satisfying
// replication.Sink (used for command fan-out to a promoted replica
// connection and for REPLCONF GETACK).
func (s *Session) Write(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.Write(b); err != nil {
		return err
	}
	return nil
}

// Deliver writes a pub/sub message to this connection, satisfying
// store.Subscriber.
func (s *Session) Deliver(channel, payload string) error {
	msg := resp.Array(resp.Bulk("message"), resp.Bulk(channel), resp.Bulk(payload))
	return s.Write(resp.Encode(msg))
}

// writeReply sends a single reply, flushing immediately so interleaved
// pub/sub deliveries on the same socket don't get buffered indefinitely.
func (s *Session) writeReply(r resp.Reply) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.bw.Write(resp.Encode(r)); err != nil {
		return err
	}
	return s.bw.Flush()
}

func (s *Session) subscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Session) inSubscribedMode() bool {
	return s.subscriptionCount() > 0
}

// close releases this session's store-visible state: pub/sub
// subscriptions and, if mid-transaction, its queued buffer. Per spec §5
// cancellation: "drop the connection's transaction buffer and
// subscriptions (remove from every channel it subscribed to)."
func (s *Session) close() {
	s.mu.Lock()
	channels := make([]string, 0, len(s.subs))
	for ch := range s.subs {
		channels = append(channels, ch)
	}
	s.subs = make(map[string]struct{})
	s.tx = nil
	isReplica := s.isReplica
	s.mu.Unlock()

	for _, ch := range channels {
		s.srv.store.Unsubscribe(s, ch)
	}
	if isReplica {
		s.srv.hub.RemoveReplica(s.id)
	}
	s.conn.Close()
}
