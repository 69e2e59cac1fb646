// Package snapshot is the read-only on-disk snapshot loader. Spec §1 treats
// it as an external collaborator consumed only through a typed API
// (ReadKey, ListKeys); this package provides that API over a minimal
// self-describing snapshot encoding (newline-separated
// "key\tvalue\texpireAtMillis" records, 0 meaning no expiry) since the
// wire-level RDB format itself is out of scope for the core.
package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Entry is one key loaded from a snapshot file.
type Entry struct {
	Key       string
	Value     string
	ExpiresAt time.Time // zero value means no expiry
}

// Reader answers key lookups against a snapshot file, honoring each key's
// absolute expiry (stored in the file as an epoch in milliseconds or
// seconds).
type Reader struct {
	dir, file string

	once    sync.Once
	loadErr error
	entries map[string]Entry
}

// New returns a Reader bound to the given directory and filename. Nothing
// is read from disk until the first ReadKey/ListKeys call.
func New(dir, file string) *Reader {
	return &Reader{dir: dir, file: file}
}

// Configured reports whether a (dir, file) pair was actually supplied.
func (r *Reader) Configured() bool {
	return r != nil && r.dir != "" && r.file != ""
}

// ensureLoaded loads the snapshot file at most once, guarded by r.once so
// concurrent first calls from separate connection goroutines (ReadKey and
// ListKeys are both called after the store's own lock is released) can't
// race on r.entries.
func (r *Reader) ensureLoaded() error {
	r.once.Do(func() {
		r.entries = make(map[string]Entry)
		r.loadErr = r.load()
	})
	return r.loadErr
}

func (r *Reader) load() error {
	if !r.Configured() {
		return nil
	}
	path := filepath.Join(r.dir, r.file)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 2 {
			continue
		}
		entry := Entry{Key: parts[0], Value: parts[1]}
		if len(parts) == 3 && parts[2] != "0" {
			epoch, err := strconv.ParseInt(parts[2], 10, 64)
			if err == nil {
				entry.ExpiresAt = epochToTime(epoch)
			}
		}
		r.entries[entry.Key] = entry
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("snapshot: scan %s: %w", path, err)
	}
	return nil
}

// epochToTime interprets epoch as milliseconds if large enough to plausibly
// be a millisecond timestamp, otherwise as seconds.
func epochToTime(epoch int64) time.Time {
	const secondsToMsThreshold = 10_000_000_000 // year ~2286 in seconds
	if epoch > secondsToMsThreshold {
		return time.UnixMilli(epoch)
	}
	return time.Unix(epoch, 0)
}

// ReadKey returns the entry for key if present and not expired as of now.
func (r *Reader) ReadKey(key string, now time.Time) (Entry, bool, error) {
	if err := r.ensureLoaded(); err != nil {
		return Entry{}, false, err
	}
	e, ok := r.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// ListKeys returns every non-expired key in the snapshot.
func (r *Reader) ListKeys(now time.Time) ([]string, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.entries))
	for k, e := range r.entries {
		if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}
