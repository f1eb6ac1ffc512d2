package cache

import (
	"sync"
	"time"
)

// memoryTier is the bounded in-memory LRU layer in front of the durable tier.
type memoryTier struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*Record
	order    []string // LRU order, oldest first
	now      func() time.Time
}

func newMemoryTier(capacity int, ttl time.Duration, now func() time.Time) *memoryTier {
	if capacity < 1 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &memoryTier{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*Record),
		order:    make([]string, 0, capacity),
		now:      now,
	}
}

func (m *memoryTier) get(key string) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(rec) {
		m.remove(key)
		return nil, false
	}

	rec.AccessedAt = m.now()
	rec.AccessCount++
	m.moveToEnd(key)

	copied := *rec
	return &copied, true
}

func (m *memoryTier) set(rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[rec.Key]; exists {
		m.moveToEnd(rec.Key)
	} else {
		m.order = append(m.order, rec.Key)
	}

	copied := *rec
	m.entries[rec.Key] = &copied

	for len(m.entries) > m.capacity && len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(key)
}

func (m *memoryTier) deleteAccount(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, rec := range m.entries {
		if rec.AccountID == accountID {
			m.remove(key)
		}
	}
}

func (m *memoryTier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Record)
	m.order = m.order[:0]
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memoryTier) expired(rec *Record) bool {
	return m.ttl > 0 && m.now().Sub(rec.CreatedAt) >= m.ttl
}

func (m *memoryTier) moveToEnd(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			m.order = append(m.order, key)
			break
		}
	}
}

func (m *memoryTier) remove(key string) {
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
