// Package replication implements the primary-side replication hub (replica
// sink set, primary offset, WAIT quorum) and the replica-side client
// (handshake + steady-state apply), grounded on core/replication.go's
// typed Replicator (logger/cfg/peer-manager fields, gossip fanout loop)
// and core/connection_pool.go's locked-map-of-live-connections shape.
package replication

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"synnergy-kv/internal/resp"
)

// pollInterval is how often Wait re-checks the ACK counter, matching spec
// §5's "WAIT polls the ACK counter at short intervals" suspension point.
const pollInterval = 5 * time.Millisecond

// Sink is a write-only connection to a connected replica.
type Sink interface {
	ID() string
	Write(b []byte) error
}

// Hub is the primary-side replication state: connected replica sinks, the
// running primary offset, and the ACK bookkeeping WAIT depends on.
type Hub struct {
	mu            sync.Mutex
	replicas      map[string]Sink
	primaryOffset uint64
	ackOffsets    map[string]uint64
	waitTarget    uint64
	ackCount      int
	replID        string
	logger        *logrus.Logger
}

// NewHub constructs an empty replication hub with a freshly generated
// 40-hex replication ID (grounded on core/storage.go's use of
// github.com/google/uuid for identifier generation).
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	id2 := uuid.New()
	replID := fmt.Sprintf("%x%x", id[:], id2[:4])[:40]
	return &Hub{
		replicas:   make(map[string]Sink),
		ackOffsets: make(map[string]uint64),
		replID:     replID,
		logger:     logger,
	}
}

// ReplID returns the primary's replication ID, advertised by INFO.
func (h *Hub) ReplID() string {
	return h.replID
}

// AddReplica registers a newly handshaked replica sink.
func (h *Hub) AddReplica(sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replicas[sink.ID()] = sink
}

// RemoveReplica deregisters a replica, e.g. on disconnect.
func (h *Hub) RemoveReplica(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.replicas, id)
	delete(h.ackOffsets, id)
}

// ReplicaCount returns the number of connected replicas.
func (h *Hub) ReplicaCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.replicas)
}

// PrimaryOffset returns the current primary offset.
func (h *Hub) PrimaryOffset() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.primaryOffset
}

// Propagate fans raw (the exact wire bytes of an accepted write-mutating
// command) out to every connected replica, best-effort, and advances the
// primary offset by its byte length. Spec §9: replay raw bytes verbatim,
// never re-serialize.
func (h *Hub) Propagate(raw []byte) {
	h.mu.Lock()
	h.primaryOffset += uint64(len(raw))
	sinks := make([]Sink, 0, len(h.replicas))
	for _, s := range h.replicas {
		sinks = append(sinks, s)
	}
	h.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Write(raw); err != nil {
			h.logger.WithError(err).WithField("replica", sink.ID()).Warn("replication fan-out failed")
		}
	}
}

// OnAck records a REPLCONF ACK <offset> reply from replica id.
func (h *Hub) OnAck(id string, offset uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ackOffsets[id] = offset
	if offset >= h.waitTarget {
		h.ackCount++
	}
}

// Wait implements the WAIT quorum protocol of spec §4.8.
func (h *Hub) Wait(n int, timeout time.Duration) int {
	h.mu.Lock()
	if len(h.replicas) == 0 {
		h.mu.Unlock()
		return 0
	}
	if h.primaryOffset == 0 {
		count := len(h.replicas)
		h.mu.Unlock()
		return count
	}
	h.waitTarget = h.primaryOffset
	h.ackCount = 0
	sinks := make([]Sink, 0, len(h.replicas))
	for _, s := range h.replicas {
		sinks = append(sinks, s)
	}
	h.mu.Unlock()

	getack := resp.EncodeRawCommand("REPLCONF", "GETACK", "*")
	for _, sink := range sinks {
		if err := sink.Write(getack); err != nil {
			h.logger.WithError(err).WithField("replica", sink.ID()).Warn("GETACK fan-out failed")
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		h.mu.Lock()
		count := h.ackCount
		replicaN := len(h.replicas)
		h.mu.Unlock()
		if count >= n || count >= replicaN {
			break
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}

	h.mu.Lock()
	count := h.ackCount
	h.ackCount = 0
	h.primaryOffset += uint64(len(getack))
	h.mu.Unlock()
	return count
}
