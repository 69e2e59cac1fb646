package clock

import (
	"testing"
	"time"
)

// fixedClock always reports the same wall-clock millisecond.
type fixedClock struct{ ms uint64 }

func (c fixedClock) Now() time.Time     { return time.UnixMilli(int64(c.ms)) }
func (c fixedClock) WallMillis() uint64 { return c.ms }

func TestNextAutoSameMillis(t *testing.T) {
	g := NewIDGen(fixedClock{ms: 100})
	last := StreamID{Ms: 100, Seq: 5}
	id := g.NextAuto(last, true)
	if id != (StreamID{Ms: 100, Seq: 6}) {
		t.Fatalf("expected seq to increment on the same ms, got %+v", id)
	}
}

func TestNextForMillisEmptyStreamZeroBoundary(t *testing.T) {
	id := NextForMillis(0, StreamID{}, false)
	if id != (StreamID{Ms: 0, Seq: 1}) {
		t.Fatalf("expected 0-1 boundary case, got %+v", id)
	}
}

func TestNextForMillisSameMs(t *testing.T) {
	last := StreamID{Ms: 10, Seq: 3}
	id := NextForMillis(10, last, true)
	if id != (StreamID{Ms: 10, Seq: 4}) {
		t.Fatalf("expected seq to increment on same ms, got %+v", id)
	}
}

func TestNextForMillisNewMs(t *testing.T) {
	last := StreamID{Ms: 10, Seq: 3}
	id := NextForMillis(20, last, true)
	if id != (StreamID{Ms: 20, Seq: 0}) {
		t.Fatalf("expected seq 0 on a new ms, got %+v", id)
	}
}

func TestStreamIDOrdering(t *testing.T) {
	a := StreamID{Ms: 1, Seq: 0}
	b := StreamID{Ms: 1, Seq: 1}
	c := StreamID{Ms: 2, Seq: 0}
	if !a.Less(b) || !b.Less(c) || a.Less(a) {
		t.Fatalf("unexpected ordering among %+v, %+v, %+v", a, b, c)
	}
	if !a.LessEq(a) {
		t.Fatalf("expected LessEq to be reflexive")
	}
}
