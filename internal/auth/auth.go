// Package auth implements the per-user credential table backing
// ACL SETUSER/GETUSER/WHOAMI and AUTH, grounded on core/access_control.go's
// mutex-guarded cache-over-persistent-map shape (persistence here is just
// the in-memory map itself, per the store's data model).
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

const DefaultUser = "default"

// Table is the user/credential store: map<username, set of password
// hashes>. Safe for concurrent use.
type Table struct {
	mu    sync.Mutex
	users map[string]map[[32]byte]struct{}
}

// NewTable returns an empty credential table with only the default user
// registered, with an empty password set.
func NewTable() *Table {
	t := &Table{users: make(map[string]map[[32]byte]struct{})}
	t.users[DefaultUser] = make(map[[32]byte]struct{})
	return t
}

// HashPassword returns SHA-256(password), matching spec §4.9 exactly.
func HashPassword(password string) [32]byte {
	return sha256.Sum256([]byte(password))
}

// SetUser installs password for user, replacing any prior credential set
// with a single-entry set (mirrors ACL SETUSER's observable effect: the
// most recent password is the one that authenticates).
func (t *Table) SetUser(user, password string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := make(map[[32]byte]struct{})
	set[HashPassword(password)] = struct{}{}
	t.users[user] = set
}

// Exists reports whether user is registered: the default user always is,
// any other user once SetUser has run for it.
func (t *Table) Exists(user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.users[user]
	return ok
}

// Verify reports whether password matches one of user's stored hashes.
func (t *Table) Verify(user, password string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.users[user]
	if !ok {
		return false
	}
	_, ok = set[HashPassword(password)]
	return ok
}

// HashesHex returns the hex-encoded SHA-256 password hashes stored for
// user, in indeterminate order (used by ACL GETUSER).
func (t *Table) HashesHex(user string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.users[user]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, hex.EncodeToString(h[:]))
	}
	return out
}
