package jobqueue

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoangdh1/eCommerce/pkg/redis"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]float64
}

func newMemStore() *memStore {
	return &memStore{
		data: map[string]string{},
		sets: map[string]map[string]float64{},
	}
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]float64{}
	}
	m.sets[key][member] = score
	return nil
}

func (m *memStore) ZRangeByScore(_ context.Context, key string, max float64, limit int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type entry struct {
		member string
		score  float64
	}
	var entries []entry
	for member, score := range m.sets[key] {
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

func (m *memStore) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, member := range members {
		if _, ok := m.sets[key][member]; ok {
			delete(m.sets[key], member)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) ZCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key])), nil
}

func (m *memStore) JobsKey(parts ...string) string {
	return "ecom:jobs:" + strings.Join(parts, ":")
}

func (m *memStore) score(key, member string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key][member]
	return s, ok
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
