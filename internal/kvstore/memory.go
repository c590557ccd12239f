package kvstore

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory with lazy expiry.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
	expiry  map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
		expiry:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// expire drops key if its deadline has passed. Callers hold mu.
func (m *MemoryStore) expire(key string) {
	deadline, ok := m.expiry[key]
	if !ok || m.now().Before(deadline) {
		return
	}
	m.deleteLocked(key)
}

func (m *MemoryStore) deleteLocked(key string) {
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.lists, key)
	delete(m.expiry, key)
}

func (m *MemoryStore) setExpiry(key string, ttl time.Duration) {
	if ttl > 0 {
		m.expiry[key] = m.now().Add(ttl)
	} else {
		delete(m.expiry, key)
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	return m.strings[key], nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key)
	m.strings[key] = value
	m.setExpiry(key, ttl)
	return nil
}

func (m *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		m.sets[key] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, mem := range members {
		delete(set, mem)
	}
	if len(set) == 0 {
		m.deleteLocked(key)
	}
	return nil
}

func (m *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for mem := range set {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) PushRecent(_ context.Context, key, member string, maxLen int, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	old := m.lists[key]
	list := make([]string, 0, len(old)+1)
	list = append(list, member)
	for _, v := range old {
		if v != member {
			list = append(list, v)
		}
	}
	if maxLen > 0 && len(list) > maxLen {
		list = list[:maxLen]
	}
	m.lists[key] = list
	if ttl > 0 {
		m.expiry[key] = m.now().Add(ttl)
	}
	return nil
}

func (m *MemoryStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []string{}, nil
	}
	return append([]string(nil), list[start:stop+1]...), nil
}

func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	collect := func(key string) {
		if ok, _ := path.Match(pattern, key); ok {
			seen[key] = struct{}{}
		}
	}
	for k := range m.strings {
		collect(k)
	}
	for k := range m.sets {
		collect(k)
	}
	for k := range m.lists {
		collect(k)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		if deadline, ok := m.expiry[k]; ok && !m.now().Before(deadline) {
			m.deleteLocked(k)
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.deleteLocked(k)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
