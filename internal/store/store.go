// Package store is the shared, synchronized data model: keyed values
// (strings, streams), and the separate lists / sorted-sets / pub-sub /
// credential namespaces described in spec §3. A single coarse mutex
// guards every namespace, with one sync.Cond per blocking namespace
// (lists, streams) used to wake BLPOP/XREAD waiters — grounded on
// core/access_control.go's mutex+map shape and on the original Rust
// source's Arc<(Mutex<...>, Condvar)> pattern for blocking pops.
package store

import (
	"container/list"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"synnergy-kv/internal/auth"
	"synnergy-kv/internal/clock"
	"synnergy-kv/internal/snapshot"
)

// Kind identifies the value kind occupying a key in the keyed namespace.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// ErrWrongType is returned when an operation targets a key holding an
// incompatible value kind.
var ErrWrongType = fmt.Errorf("WRONGTYPE Operation against a key holding the wrong kind of value")

type keyEntry struct {
	kind      Kind
	str       string
	stream    *streamValue
	hasExpiry bool
	expiresAt time.Time
}

// Store is the single owner of all value namespaces, shared by reference
// across connections.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock
	idgen *clock.IDGen

	keys map[string]*keyEntry

	lists    map[string]*list.List
	listCond *sync.Cond

	streamCond *sync.Cond

	zsets map[string]*zset

	pubsub map[string]map[string]Subscriber

	auth *auth.Table

	snap *snapshot.Reader
}

// New constructs an empty Store. snap may be nil if no snapshot file was
// configured.
func New(c clock.Clock, snap *snapshot.Reader) *Store {
	if c == nil {
		c = clock.System{}
	}
	s := &Store{
		clock:  c,
		idgen:  clock.NewIDGen(c),
		keys:   make(map[string]*keyEntry),
		lists:  make(map[string]*list.List),
		zsets:  make(map[string]*zset),
		pubsub: make(map[string]map[string]Subscriber),
		auth:   auth.NewTable(),
		snap:   snap,
	}
	s.listCond = sync.NewCond(&s.mu)
	s.streamCond = sync.NewCond(&s.mu)
	return s
}

// Auth returns the store's credential table.
func (s *Store) Auth() *auth.Table { return s.auth }

// Expiry describes a SET's optional TTL, as an offset from the call time.
type Expiry struct {
	None bool
	PX   time.Duration // relative, milliseconds precision
	EX   time.Duration // relative, seconds precision
}

func (e Expiry) duration() (time.Duration, bool) {
	switch {
	case e.PX != 0:
		return e.PX, true
	case e.EX != 0:
		return e.EX, true
	default:
		return 0, false
	}
}

// Set installs key with value, with optional TTL.
func (s *Store) Set(key, value string, expiry Expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &keyEntry{kind: KindString, str: value}
	if d, ok := expiry.duration(); ok {
		e.hasExpiry = true
		e.expiresAt = s.clock.Now().Add(d)
	}
	s.keys[key] = e
}

// expireIfNeeded deletes key if it has passed its expiry. Caller must hold
// s.mu.
func (s *Store) expireIfNeeded(key string) {
	e, ok := s.keys[key]
	if !ok {
		return
	}
	if e.hasExpiry && !s.clock.Now().Before(e.expiresAt) {
		delete(s.keys, key)
	}
}

// Get returns the value for key, consulting the snapshot reader for keys
// absent from live memory when one is configured.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	s.expireIfNeeded(key)
	e, ok := s.keys[key]
	if ok {
		if e.kind != KindString {
			s.mu.Unlock()
			return "", false, ErrWrongType
		}
		val := e.str
		s.mu.Unlock()
		return val, true, nil
	}
	s.mu.Unlock()

	if s.snap == nil || !s.snap.Configured() {
		return "", false, nil
	}
	ent, found, err := s.snap.ReadKey(key, s.clock.Now())
	if err != nil {
		return "", false, fmt.Errorf("store: snapshot lookup: %w", err)
	}
	if !found {
		return "", false, nil
	}
	return ent.Value, true, nil
}

// Type reports the kind of key: "string", "stream", or "none".
func (s *Store) Type(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeeded(key)
	e, ok := s.keys[key]
	if !ok {
		return KindNone.String()
	}
	return e.kind.String()
}

// Incr parses the current value as a non-negative decimal integer,
// increments it, and returns the new value.
func (s *Store) Incr(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeeded(key)
	e, ok := s.keys[key]
	if !ok {
		s.keys[key] = &keyEntry{kind: KindString, str: "1"}
		return 1, nil
	}
	if e.kind != KindString {
		return 0, ErrWrongType
	}
	n, err := strconv.ParseInt(e.str, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("value is not an integer or out of range")
	}
	n++
	e.str = strconv.FormatInt(n, 10)
	return n, nil
}

// Keys returns every live key name matching the literal pattern "*"
// (the only pattern spec §6 requires), merging in snapshot-only keys.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	seen := make(map[string]struct{}, len(s.keys))
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		s.expireIfNeeded(k)
		if _, ok := s.keys[k]; !ok {
			continue
		}
		out = append(out, k)
		seen[k] = struct{}{}
	}
	s.mu.Unlock()

	if s.snap != nil && s.snap.Configured() {
		snapKeys, err := s.snap.ListKeys(s.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("store: snapshot list: %w", err)
		}
		for _, k := range snapKeys {
			if _, ok := seen[k]; ok {
				continue
			}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
