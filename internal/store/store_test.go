package store

import (
	"testing"
	"time"
)

// manualClock is a deterministic Clock used to exercise TTL and stream-ID
// behavior without relying on wall-clock timing, mirroring the seam
// internal/clock opens around time.Now for tests.
type manualClock struct {
	now  time.Time
	wall uint64
}

func (c *manualClock) Now() time.Time    { return c.now }
func (c *manualClock) WallMillis() uint64 { return c.wall }

func TestSetGetRoundTrip(t *testing.T) {
	s := New(nil, nil)
	s.Set("k", "v", Expiry{})
	v, ok, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "v" {
		t.Fatalf("expected (v,true), got (%q,%v)", v, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New(nil, nil)
	_, ok, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key to report ok=false")
	}
}

func TestExpiryDeletesLazily(t *testing.T) {
	clk := &manualClock{now: time.Unix(1000, 0)}
	s := New(clk, nil)
	s.Set("k", "v", Expiry{PX: 10 * time.Millisecond})

	clk.now = clk.now.Add(5 * time.Millisecond)
	if _, ok, _ := s.Get("k"); !ok {
		t.Fatalf("expected key to still be live before expiry")
	}

	clk.now = clk.now.Add(50 * time.Millisecond)
	if _, ok, _ := s.Get("k"); ok {
		t.Fatalf("expected key to be expired")
	}
}

func TestTypeReportsKindOrNone(t *testing.T) {
	s := New(nil, nil)
	if got := s.Type("absent"); got != "none" {
		t.Fatalf("expected none, got %q", got)
	}
	s.Set("str", "v", Expiry{})
	if got := s.Type("str"); got != "string" {
		t.Fatalf("expected string, got %q", got)
	}
	if _, err := s.XAdd("strm", "*", []Field{{Name: "f", Value: "v"}}); err != nil {
		t.Fatalf("XAdd: %v", err)
	}
	if got := s.Type("strm"); got != "stream" {
		t.Fatalf("expected stream, got %q", got)
	}
}

func TestIncrCreatesThenIncrements(t *testing.T) {
	s := New(nil, nil)
	n, err := s.Incr("counter")
	if err != nil || n != 1 {
		t.Fatalf("expected (1,nil), got (%d,%v)", n, err)
	}
	n, err = s.Incr("counter")
	if err != nil || n != 2 {
		t.Fatalf("expected (2,nil), got (%d,%v)", n, err)
	}
}

func TestIncrWrongTypeError(t *testing.T) {
	s := New(nil, nil)
	if _, err := s.XAdd("astream", "*", []Field{{Name: "f", Value: "v"}}); err != nil {
		t.Fatalf("XAdd: %v", err)
	}
	if _, err := s.Incr("astream"); err != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestKeysMergesLiveAndSorted(t *testing.T) {
	s := New(nil, nil)
	s.Set("b", "1", Expiry{})
	s.Set("a", "1", Expiry{})
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", keys)
	}
}
