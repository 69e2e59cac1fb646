package store

// Subscriber is anything that can receive a published message; the server
// package's connection wrapper implements this, keeping the pub/sub table
// keyed by stable identifier rather than by raw socket (spec §9: "store
// subscribers by stable connection identifier, not by raw socket").
type Subscriber interface {
	ID() string
	Deliver(channel, payload string) error
}

func (s *Store) channelFor(channel string, create bool) map[string]Subscriber {
	m, ok := s.pubsub[channel]
	if !ok {
		if !create {
			return nil
		}
		m = make(map[string]Subscriber)
		s.pubsub[channel] = m
	}
	return m
}

// Subscribe adds sub to channel's subscriber set, reporting whether it was
// not already present.
func (s *Store) Subscribe(sub Subscriber, channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.channelFor(channel, true)
	if _, ok := m[sub.ID()]; ok {
		return false
	}
	m[sub.ID()] = sub
	return true
}

// Unsubscribe removes sub from channel's subscriber set, reporting whether
// it had been present.
func (s *Store) Unsubscribe(sub Subscriber, channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.channelFor(channel, false)
	if m == nil {
		return false
	}
	if _, ok := m[sub.ID()]; !ok {
		return false
	}
	delete(m, sub.ID())
	if len(m) == 0 {
		delete(s.pubsub, channel)
	}
	return true
}

// Publish delivers payload to every subscriber of channel, returning the
// count of subscribers attempted. Delivery failures are best-effort: the
// caller supplies a callback to log them, since the store package itself
// carries no logger (kept a stdlib-only, dependency-free namespace).
func (s *Store) Publish(channel, payload string, onErr func(subscriberID string, err error)) int {
	s.mu.Lock()
	m := s.channelFor(channel, false)
	subs := make([]Subscriber, 0, len(m))
	for _, sub := range m {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Deliver(channel, payload); err != nil && onErr != nil {
			onErr(sub.ID(), err)
		}
	}
	return len(subs)
}
