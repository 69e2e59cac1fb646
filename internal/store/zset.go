package store

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"synnergy-kv/internal/geo"
)

// zsetMember pairs a member name with its score, the ordered
// representation's element shape.
type zsetMember struct {
	score  float64
	member string
}

// zset holds the dual hash+ordered representation described in spec §4.4:
// for every (score, member) in ordered, scores[member] == score, and both
// sides share the same member set.
type zset struct {
	scores  map[string]float64
	ordered []zsetMember
}

func newZSet() *zset {
	return &zset{scores: make(map[string]float64)}
}

func zsetLess(a, b zsetMember) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

func (z *zset) insertOrdered(m zsetMember) {
	i := sort.Search(len(z.ordered), func(i int) bool { return !zsetLess(z.ordered[i], m) })
	z.ordered = append(z.ordered, zsetMember{})
	copy(z.ordered[i+1:], z.ordered[i:])
	z.ordered[i] = m
}

func (z *zset) removeOrdered(m zsetMember) {
	i := sort.Search(len(z.ordered), func(i int) bool { return !zsetLess(z.ordered[i], m) })
	if i < len(z.ordered) && z.ordered[i] == m {
		z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
	}
}

func (s *Store) zsetFor(key string, create bool) *zset {
	z, ok := s.zsets[key]
	if !ok {
		if !create {
			return nil
		}
		z = newZSet()
		s.zsets[key] = z
	}
	return z
}

// ZAdd inserts or updates member's score in key's sorted set, returning
// the count of newly added (not updated) members.
func (s *Store) ZAdd(key string, pairs map[string]float64) (int, error) {
	for _, sc := range pairs {
		if math.IsNaN(sc) {
			return 0, fmt.Errorf("value is not a valid float")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, true)

	added := 0
	for member, score := range pairs {
		old, isOld := z.scores[member]
		isNew := !isOld
		if isNew {
			added++
		} else {
			z.removeOrdered(zsetMember{score: old, member: member})
		}
		z.scores[member] = score
		z.insertOrdered(zsetMember{score: score, member: member})
	}
	return added, nil
}

// ZRank returns member's 0-based rank under (score asc, member asc) order.
func (s *Store) ZRank(key, member string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, false)
	if z == nil {
		return 0, false
	}
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}
	target := zsetMember{score: score, member: member}
	i := sort.Search(len(z.ordered), func(i int) bool { return !zsetLess(z.ordered[i], target) })
	return i, true
}

// ZRange returns members in [start, end] inclusive, using the same
// negative/clamp rules as LRANGE.
func (s *Store) ZRange(key string, start, end int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, false)
	if z == nil {
		return nil
	}
	lo, hi, ok := clampRange(start, end, len(z.ordered))
	if !ok {
		return []string{}
	}
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, z.ordered[i].member)
	}
	return out
}

// ZCard returns the cardinality of key's sorted set.
func (s *Store) ZCard(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, false)
	if z == nil {
		return 0
	}
	return len(z.scores)
}

// ZScore returns member's score as its exact decimal string form.
func (s *Store) ZScore(key, member string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, false)
	if z == nil {
		return "", false
	}
	score, ok := z.scores[member]
	if !ok {
		return "", false
	}
	return formatScore(score), true
}

// ZRem removes member from key's sorted set, reporting whether it was
// present.
func (s *Store) ZRem(key, member string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetFor(key, false)
	if z == nil {
		return false
	}
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.removeOrdered(zsetMember{score: score, member: member})
	return true
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// GeoAdd inserts member into key's sorted set using the 52-bit Morton
// score of (lon, lat), sharing the zset's storage per spec §4.5.
func (s *Store) GeoAdd(key string, lon, lat float64, member string) error {
	score, err := geo.Encode(lon, lat)
	if err != nil {
		return err
	}
	_, err = s.ZAdd(key, map[string]float64{member: score})
	return err
}

// GeoPos decodes the stored score for each member back to (lon, lat);
// members absent from the set yield ok=false at that index.
func (s *Store) GeoPos(key string, members []string) []struct {
	Lon, Lat float64
	OK       bool
} {
	s.mu.Lock()
	z := s.zsetFor(key, false)
	scores := make([]float64, len(members))
	oks := make([]bool, len(members))
	if z != nil {
		for i, m := range members {
			sc, ok := z.scores[m]
			scores[i] = sc
			oks[i] = ok
		}
	}
	s.mu.Unlock()

	out := make([]struct {
		Lon, Lat float64
		OK       bool
	}, len(members))
	for i := range members {
		if !oks[i] {
			continue
		}
		lon, lat := geo.Decode(scores[i])
		out[i] = struct {
			Lon, Lat float64
			OK       bool
		}{Lon: lon, Lat: lat, OK: true}
	}
	return out
}

// GeoDist returns the haversine distance in meters between two members of
// key's set.
func (s *Store) GeoDist(key, a, b string) (float64, bool) {
	s.mu.Lock()
	z := s.zsetFor(key, false)
	var sa, sb float64
	var oka, okb bool
	if z != nil {
		sa, oka = z.scores[a]
		sb, okb = z.scores[b]
	}
	s.mu.Unlock()
	if !oka || !okb {
		return 0, false
	}
	lon1, lat1 := geo.Decode(sa)
	lon2, lat2 := geo.Decode(sb)
	return geo.HaversineMeters(lon1, lat1, lon2, lat2), true
}

// GeoSearchResult is one member returned by GeoSearch.
type GeoSearchResult struct {
	Member       string
	DistMeters   float64
	Lon, Lat     float64
}

// GeoSearch returns every member of key whose haversine distance from
// (lon, lat) is strictly less than radiusMeters.
func (s *Store) GeoSearch(key string, lon, lat, radiusMeters float64) []GeoSearchResult {
	s.mu.Lock()
	z := s.zsetFor(key, false)
	var members []zsetMember
	if z != nil {
		members = append(members, z.ordered...)
	}
	s.mu.Unlock()

	var out []GeoSearchResult
	for _, m := range members {
		mlon, mlat := geo.Decode(m.score)
		d := geo.HaversineMeters(lon, lat, mlon, mlat)
		if d < radiusMeters {
			out = append(out, GeoSearchResult{Member: m.member, DistMeters: d, Lon: mlon, Lat: mlat})
		}
	}
	return out
}
