package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"synnergy-kv/internal/config"
	"synnergy-kv/internal/replication"
	"synnergy-kv/internal/resp"
	"synnergy-kv/internal/snapshot"
	"synnergy-kv/internal/store"
)

// Server owns the listener, the shared Store, and (when acting as a
// primary) the replication hub. It is the composition root generalized
// from the teacher's Node (core/network.go): one long-lived object wired
// once at startup and handed to each connection by reference.
type Server struct {
	cfg    config.Config
	store  *store.Store
	hub    *replication.Hub
	logger *logrus.Logger

	role string // "master" or "slave"

	mu       sync.Mutex
	listener net.Listener
}

// New constructs a Server from cfg. If cfg.ReplicaOf is set, the server
// takes the replica role (spec §4.8 role selection).
func New(cfg config.Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var snap *snapshot.Reader
	if cfg.Dir != "" && cfg.DBFilename != "" {
		snap = snapshot.New(cfg.Dir, cfg.DBFilename)
	}
	role := "master"
	if cfg.ReplicaOf != "" {
		role = "slave"
	}
	return &Server{
		cfg:    cfg,
		store:  store.New(nil, snap),
		hub:    replication.NewHub(logger),
		logger: logger,
		role:   role,
	}
}

// Store exposes the underlying Store (used by tests and by the admin HTTP
// surface).
func (srv *Server) Store() *store.Store { return srv.store }

// Hub exposes the replication hub.
func (srv *Server) Hub() *replication.Hub { return srv.hub }

// Role reports "master" or "slave".
func (srv *Server) Role() string { return srv.role }

// Addr returns the bound listener's address. Only valid after
// ListenAndServe has started listening; used by tests that bind to port 0
// and need to discover the chosen port.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// ListenAndServe binds the TCP listener and serves connections until ctx
// is cancelled. If this node is a replica, it also starts the replica
// client against the configured primary. Mirrors core/base_node.go's
// ListenAndServe/Close wrapper shape.
func (srv *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", srv.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	srv.mu.Lock()
	srv.listener = ln
	srv.mu.Unlock()
	srv.logger.WithField("addr", addr).Info("listening")

	if srv.role == "slave" {
		go srv.runReplicaClient(ctx)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}
		go srv.handleConn(conn)
	}
}

func (srv *Server) runReplicaClient(ctx context.Context) {
	client := replication.NewClient(srv.cfg.ReplicaOf, srv.cfg.Port, srv, srv.logger)
	if err := client.Run(ctx); err != nil {
		srv.logger.WithError(err).Warn("replica client stopped")
	}
}

// Apply implements replication.Applier: it dispatches a command received
// from the primary directly against the Store, producing no reply.
func (srv *Server) Apply(cmd *resp.Command) error {
	sess := &Session{id: "replication-apply", srv: srv}
	_ = dispatch(sess, cmd)
	return nil
}

func (srv *Server) handleConn(conn net.Conn) {
	sess := newSession(conn, srv)
	defer sess.close()

	br := bufio.NewReader(conn)
	reader := resp.NewReader(br)

	srv.logger.WithField("conn", sess.id).Info("client connected")
	for {
		cmd, err := reader.ReadCommand()
		if err != nil {
			if err != resp.ErrClosed {
				srv.logger.WithField("conn", sess.id).WithError(err).Warn("protocol error")
			}
			return
		}
		srv.handleCommand(sess, cmd)
	}
}

func (srv *Server) handleCommand(sess *Session, cmd *resp.Command) {
	name := strings.ToUpper(cmd.Name)

	sess.mu.Lock()
	inSub := len(sess.subs) > 0
	inTx := sess.tx != nil
	sess.mu.Unlock()

	if inSub && !isSubscribedModeAllowed(name) {
		sess.writeReply(resp.Errf("ERR Can't execute '%s': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT are allowed in this context", strings.ToLower(name)))
		return
	}

	if inTx && name != "EXEC" && name != "DISCARD" && name != "MULTI" {
		sess.mu.Lock()
		sess.tx.queued = append(sess.tx.queued, cmd)
		sess.mu.Unlock()
		sess.writeReply(resp.Simple("QUEUED"))
		return
	}

	reply := dispatch(sess, cmd)
	sess.writeReply(reply)

	if srv.role == "master" && isWriteCommand(name) {
		srv.hub.Propagate(cmd.Raw)
	}
}

func isSubscribedModeAllowed(name string) bool {
	switch name {
	case "SUBSCRIBE", "UNSUBSCRIBE", "PING", "QUIT":
		return true
	default:
		return false
	}
}

func isWriteCommand(name string) bool {
	switch name {
	case "SET", "RPUSH", "LPUSH", "LPOP", "BLPOP", "XADD", "INCR":
		return true
	default:
		return false
	}
}

// promoteToReplica marks sess as a replication sink once PSYNC completes,
// and registers it with the hub.
func (srv *Server) promoteToReplica(sess *Session) {
	sess.mu.Lock()
	sess.isReplica = true
	sess.mu.Unlock()
	srv.hub.AddReplica(sess)
}

// parsePort parses a decimal port number. Nothing calls it: REPLCONF
// listening-port is acknowledged without parsing its value, since the
// primary never dials back.
func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}
