// Package adminhttp is a small read-only HTTP surface for operational
// visibility into a running node: liveness and a debug view of live keys
// and replication state. Grounded on the teacher's cmd/xchainserver and
// walletserver/routes/routes.go gorilla/mux router shape, trimmed to GET-only
// debug endpoints since nothing here mutates store state.
package adminhttp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"synnergy-kv/internal/replication"
	"synnergy-kv/internal/store"
)

// Server is the admin HTTP surface. It never mutates the Store or Hub it
// was handed; every route is read-only.
type Server struct {
	store  *store.Store
	hub    *replication.Hub
	role   string
	logger *logrus.Logger
	router *mux.Router
}

// New builds an admin HTTP server bound to the given Store/Hub/role.
func New(st *store.Store, hub *replication.Hub, role string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{store: st, hub: hub, role: role, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/debug/keys", s.handleKeys).Methods(http.MethodGet)
	s.router.HandleFunc("/debug/replication", s.handleReplication).Methods(http.MethodGet)
	return s
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	s.logger.WithField("addr", addr).Info("admin http listening")
	err = httpSrv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "ok", "role": s.role})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.Keys()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	types := make(map[string]string, len(keys))
	for _, k := range keys {
		types[k] = s.store.Type(k)
	}
	writeJSON(w, map[string]interface{}{"keys": keys, "types": types})
}

func (s *Server) handleReplication(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"role":            s.role,
		"connected_slaves": s.hub.ReplicaCount(),
		"master_replid":   s.hub.ReplID(),
		"primary_offset":  s.hub.PrimaryOffset(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
