package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"synnergy-kv/internal/clock"
)

// Field is one (name, value) pair of a stream entry, order preserved.
type Field struct {
	Name, Value string
}

// StreamEntry is one appended record.
type StreamEntry struct {
	ID     clock.StreamID
	Fields []Field
}

type streamValue struct {
	entries []StreamEntry
	hasLast bool
	last    clock.StreamID
}

// ErrBadStreamID reports a malformed ms-seq token.
type ErrBadStreamID struct{ Msg string }

func (e ErrBadStreamID) Error() string { return e.Msg }

// ParseStreamID parses a fully qualified "ms-seq" token.
func ParseStreamID(s string) (clock.StreamID, error) {
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return clock.StreamID{}, ErrBadStreamID{"invalid stream ID specified as stream command argument"}
	}
	if len(parts) == 1 {
		return clock.StreamID{Ms: ms, Seq: 0}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return clock.StreamID{}, ErrBadStreamID{"invalid stream ID specified as stream command argument"}
	}
	return clock.StreamID{Ms: ms, Seq: seq}, nil
}

// XAdd resolves id (which may be "*", "ms-*", or a fully qualified
// "ms-seq") against key's current last entry and appends a new entry,
// returning the resolved ID's wire form.
func (s *Store) XAdd(key, id string, fields []Field) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[key]
	if ok && e.kind != KindStream {
		return "", ErrWrongType
	}
	if !ok {
		e = &keyEntry{kind: KindStream, stream: &streamValue{}}
		s.keys[key] = e
	}
	sv := e.stream

	resolved, err := s.resolveXAddID(id, sv)
	if err != nil {
		return "", err
	}

	sv.entries = append(sv.entries, StreamEntry{ID: resolved, Fields: fields})
	sv.hasLast = true
	sv.last = resolved
	s.streamCond.Broadcast()

	return fmt.Sprintf("%d-%d", resolved.Ms, resolved.Seq), nil
}

func (s *Store) resolveXAddID(id string, sv *streamValue) (clock.StreamID, error) {
	switch {
	case id == "*":
		return s.idgen.NextAuto(sv.last, sv.hasLast), nil

	case strings.HasSuffix(id, "-*"):
		msStr := strings.TrimSuffix(id, "-*")
		ms, err := strconv.ParseUint(msStr, 10, 64)
		if err != nil {
			return clock.StreamID{}, ErrBadStreamID{"invalid stream ID specified as stream command argument"}
		}
		if sv.hasLast && ms < sv.last.Ms {
			return clock.StreamID{}, fmt.Errorf("The ID specified in XADD is equal or smaller than the target stream top item")
		}
		return clock.NextForMillis(ms, sv.last, sv.hasLast), nil

	default:
		resolved, err := ParseStreamID(id)
		if err != nil {
			return clock.StreamID{}, err
		}
		if resolved == (clock.StreamID{}) {
			return clock.StreamID{}, fmt.Errorf("The ID specified in XADD must be greater than 0-0")
		}
		if sv.hasLast && resolved.LessEq(sv.last) {
			return clock.StreamID{}, fmt.Errorf("The ID specified in XADD is equal or smaller than the target stream top item")
		}
		return resolved, nil
	}
}

// parseRangeBound resolves one inclusive XRANGE bound from the
// "-"/"+"/bare-ms/"ms-seq" token forms described in spec §4.3.
func parseRangeBound(tok string, isStart bool) (clock.StreamID, error) {
	switch tok {
	case "-":
		return clock.StreamID{Ms: 0, Seq: 0}, nil
	case "+":
		return clock.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, nil
	}
	if !strings.Contains(tok, "-") {
		ms, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return clock.StreamID{}, ErrBadStreamID{"invalid stream ID specified as stream command argument"}
		}
		if isStart {
			return clock.StreamID{Ms: ms, Seq: 0}, nil
		}
		return clock.StreamID{Ms: ms, Seq: ^uint64(0)}, nil
	}
	return ParseStreamID(tok)
}

// XRange returns the entries in key's stream with IDs in [start, end].
func (s *Store) XRange(key, startTok, endTok string) ([]StreamEntry, error) {
	start, err := parseRangeBound(startTok, true)
	if err != nil {
		return nil, err
	}
	end, err := parseRangeBound(endTok, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return nil, nil
	}
	if e.kind != KindStream {
		return nil, ErrWrongType
	}
	var out []StreamEntry
	for _, entry := range e.stream.entries {
		if start.LessEq(entry.ID) && entry.ID.LessEq(end) {
			out = append(out, entry)
		}
	}
	return out, nil
}

// ResolveLastID returns the "$" token's meaning at call time: one past the
// stream's current last entry (or 0-0 if the stream is empty/missing).
func (s *Store) ResolveLastID(key string) clock.StreamID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok || e.kind != KindStream || !e.stream.hasLast {
		return clock.StreamID{}
	}
	last := e.stream.last
	return clock.StreamID{Ms: last.Ms, Seq: last.Seq + 1}
}

// XReadStream is one (key, after) pair resolved for an XREAD call.
type XReadStream struct {
	Key   string
	After clock.StreamID
}

// XReadResult is one matched stream's worth of entries.
type XReadResult struct {
	Key     string
	Entries []StreamEntry
}

// XRead returns, for each requested stream, every entry with ID strictly
// greater than the given "after" ID. If block is true it waits up to
// timeout (0 meaning forever) for at least one stream to gain a matching
// entry.
func (s *Store) XRead(streams []XReadStream, block bool, timeout time.Duration) []XReadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deadline time.Time
	if block && timeout > 0 {
		deadline = s.clock.Now().Add(timeout)
	}

	for {
		results := s.collectXRead(streams)
		if len(results) > 0 || !block {
			return results
		}
		if !deadline.IsZero() && !s.clock.Now().Before(deadline) {
			return nil
		}
		if !s.waitStreamUntil(deadline) {
			return nil
		}
	}
}

func (s *Store) collectXRead(streams []XReadStream) []XReadResult {
	var results []XReadResult
	for _, st := range streams {
		e, ok := s.keys[st.Key]
		if !ok || e.kind != KindStream {
			continue
		}
		var matched []StreamEntry
		for _, entry := range e.stream.entries {
			if st.After.Less(entry.ID) {
				matched = append(matched, entry)
			}
		}
		if len(matched) > 0 {
			results = append(results, XReadResult{Key: st.Key, Entries: matched})
		}
	}
	return results
}

func (s *Store) waitStreamUntil(deadline time.Time) bool {
	if deadline.IsZero() {
		s.streamCond.Wait()
		return true
	}
	d := time.Until(deadline)
	if d <= 0 {
		return false
	}
	timer := time.AfterFunc(d, func() {
		s.mu.Lock()
		s.streamCond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()
	s.streamCond.Wait()
	return true
}
