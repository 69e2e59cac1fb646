package store

import (
	"testing"
	"time"
)

func TestRPushLPushOrdering(t *testing.T) {
	s := New(nil, nil)
	s.RPush("q", "a", "b")
	s.LPush("q", "x", "y")
	got := s.LRange("q", 0, -1)
	want := []string{"y", "x", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLRangeNegativeIndicesAndClamping(t *testing.T) {
	s := New(nil, nil)
	s.RPush("q", "a", "b", "c", "d")
	if got := s.LRange("q", -2, -1); len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("expected [c d], got %v", got)
	}
	if got := s.LRange("q", 0, 100); len(got) != 4 {
		t.Fatalf("expected clamp to list length, got %v", got)
	}
	if got := s.LRange("q", 5, 10); len(got) != 0 {
		t.Fatalf("expected empty slice for out-of-range start, got %v", got)
	}
}

func TestLLenMissingListIsZero(t *testing.T) {
	s := New(nil, nil)
	if got := s.LLen("missing"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestLPopSingleVsCount(t *testing.T) {
	s := New(nil, nil)
	s.RPush("q", "a", "b", "c")

	out, ok := s.LPop("q", 0, false)
	if !ok || len(out) != 1 || out[0] != "a" {
		t.Fatalf("expected single pop of 'a', got %v ok=%v", out, ok)
	}

	out, ok = s.LPop("q", 2, true)
	if !ok || len(out) != 2 || out[0] != "b" || out[1] != "c" {
		t.Fatalf("expected [b c], got %v ok=%v", out, ok)
	}

	// Popping the last element deletes the list, so it now reads as missing.
	out, ok = s.LPop("q", 5, true)
	if ok || len(out) != 0 {
		t.Fatalf("expected drained list to be reported missing, got %v ok=%v", out, ok)
	}
}

func TestLPopMissingKey(t *testing.T) {
	s := New(nil, nil)
	if _, ok := s.LPop("missing", 0, false); ok {
		t.Fatalf("expected ok=false for missing key")
	}
}

func TestBLPopReturnsImmediatelyWhenNonEmpty(t *testing.T) {
	s := New(nil, nil)
	s.RPush("q", "a")
	v, ok := s.BLPop("q", time.Second)
	if !ok || v != "a" {
		t.Fatalf("expected (a,true), got (%q,%v)", v, ok)
	}
}

func TestBLPopWakesOnPush(t *testing.T) {
	s := New(nil, nil)
	done := make(chan struct{})
	var got string
	var ok bool
	go func() {
		got, ok = s.BLPop("q", 0)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // give the waiter time to block
	s.RPush("q", "pushed")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("BLPop did not wake up after push")
	}
	if !ok || got != "pushed" {
		t.Fatalf("expected (pushed,true), got (%q,%v)", got, ok)
	}
}

func TestBLPopTimesOut(t *testing.T) {
	s := New(nil, nil)
	start := time.Now()
	_, ok := s.BLPop("empty", 30*time.Millisecond)
	if ok {
		t.Fatalf("expected timeout to report ok=false")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("expected BLPop to wait out the timeout")
	}
}
