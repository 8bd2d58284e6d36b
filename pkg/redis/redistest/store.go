// Package redistest provides an in-memory stand-in for the redis client used
// by cache, job queue and lock tests.
package redistest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoangdh1/eCommerce/pkg/redis"
)

// Store mimics the subset of redis.Client the platform depends on.
type Store struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	sets map[string]map[string]float64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data: map[string]string{},
		ttls: map[string]time.Duration{},
		sets: map[string]map[string]float64{},
	}
}

func (s *Store) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = toString(value)
	s.ttls[key] = ttl
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *Store) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = toString(value)
	s.ttls[key] = ttl
	return true, nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
		delete(s.ttls, k)
		delete(s.sets, k)
	}
	return nil
}

func (s *Store) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets[key] == nil {
		s.sets[key] = map[string]float64{}
	}
	s.sets[key][member] = score
	return nil
}

func (s *Store) ZRangeByScore(_ context.Context, key string, max float64, limit int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type entry struct {
		member string
		score  float64
	}
	var entries []entry
	for member, score := range s.sets[key] {
		if score <= max {
			entries = append(entries, entry{member, score})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score == entries[j].score {
			return entries[i].member < entries[j].member
		}
		return entries[i].score < entries[j].score
	})
	out := []string{}
	for _, e := range entries {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		out = append(out, e.member)
	}
	return out, nil
}

func (s *Store) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, member := range members {
		if _, ok := s.sets[key][member]; ok {
			delete(s.sets[key], member)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}

func (s *Store) CacheKey(kind string, parts ...string) string {
	return join("ecom:cache", append([]string{kind}, parts...)...)
}

func (s *Store) JobsKey(parts ...string) string {
	return join("ecom:jobs", parts...)
}

func (s *Store) LockKey(name string) string {
	return join("ecom:lock", name)
}

// Has reports whether a plain key is present.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// TTL returns the expiry recorded for key.
func (s *Store) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// Members lists a sorted set's members ordered by score.
func (s *Store) Members(key string) []string {
	out, _ := s.ZRangeByScore(context.Background(), key, float64(1<<62), 0)
	return out
}

// Score returns a member's score.
func (s *Store) Score(key, member string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sets[key][member]
	return v, ok
}

func join(prefix string, parts ...string) string {
	clean := []string{prefix}
	for _, p := range parts {
		if p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ":")
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
