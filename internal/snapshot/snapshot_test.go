package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

func writeSnapshotFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write snapshot file: %v", err)
	}
}

func TestUnconfiguredReaderReturnsNoEntries(t *testing.T) {
	r := New("", "")
	if r.Configured() {
		t.Fatalf("expected unconfigured reader")
	}
	_, ok, err := r.ReadKey("k", time.Now())
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, "absent.snap")
	_, ok, err := r.ReadKey("k", time.Now())
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for missing file, got (%v, %v)", ok, err)
	}
}

func TestReadKeyWithoutExpiry(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "db.snap", "name\tvalue\t0\n")
	r := New(dir, "db.snap")

	entry, ok, err := r.ReadKey("name", time.Now())
	if err != nil || !ok {
		t.Fatalf("expected entry found, got ok=%v err=%v", ok, err)
	}
	if entry.Value != "value" || !entry.ExpiresAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestReadKeyHonorsExpiry(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour).UnixMilli()
	future := time.Now().Add(time.Hour).UnixMilli()
	writeSnapshotFile(t, dir, "db.snap",
		"expired\tv1\t"+itoa64(past)+"\n"+
			"alive\tv2\t"+itoa64(future)+"\n")
	r := New(dir, "db.snap")

	now := time.Now()
	if _, ok, _ := r.ReadKey("expired", now); ok {
		t.Fatalf("expected expired key to be absent")
	}
	entry, ok, err := r.ReadKey("alive", now)
	if err != nil || !ok || entry.Value != "v2" {
		t.Fatalf("expected alive key present with v2, got ok=%v err=%v entry=%+v", ok, err, entry)
	}
}

func TestListKeysExcludesExpired(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Minute).UnixMilli()
	writeSnapshotFile(t, dir, "db.snap",
		"a\t1\t0\n"+
			"b\t2\t"+itoa64(past)+"\n"+
			"c\t3\t0\n")
	r := New(dir, "db.snap")

	keys, err := r.ListKeys(time.Now())
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("expected [a c], got %v", keys)
	}
}

func TestEnsureLoadedOnlyReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "db.snap", "k\tv\t0\n")
	r := New(dir, "db.snap")

	if _, _, err := r.ReadKey("k", time.Now()); err != nil {
		t.Fatalf("first read: %v", err)
	}
	// Mutate the file on disk; the reader should keep serving its
	// already-loaded snapshot rather than re-reading.
	writeSnapshotFile(t, dir, "db.snap", "k\tchanged\t0\n")

	entry, ok, err := r.ReadKey("k", time.Now())
	if err != nil || !ok || entry.Value != "v" {
		t.Fatalf("expected cached value v, got ok=%v err=%v entry=%+v", ok, err, entry)
	}
}

// TestConcurrentFirstLoadDoesNotRace exercises the exact pattern that
// racing Store.Get/Store.Keys callers produce: many goroutines calling
// ReadKey/ListKeys for the first time concurrently, before anything has
// populated r.entries. Run with -race this must not report a concurrent
// map write.
func TestConcurrentFirstLoadDoesNotRace(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "db.snap", "a\t1\t0\nb\t2\t0\n")
	r := New(dir, "db.snap")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.ReadKey("a", time.Now())
		}()
		go func() {
			defer wg.Done()
			r.ListKeys(time.Now())
		}()
	}
	wg.Wait()

	entry, ok, err := r.ReadKey("a", time.Now())
	if err != nil || !ok || entry.Value != "1" {
		t.Fatalf("expected a=1 after concurrent load, got ok=%v err=%v entry=%+v", ok, err, entry)
	}
}

func itoa64(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}
