package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the memory cache when no size is configured.
const DefaultMaxEntries = 10000

// Memory is an in-process LRU cache with per-entry expiry.
type Memory struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	now      func() time.Time
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an LRU cache holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMaxEntries
	}
	return &Memory{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the value for key and marks it recently used.
// Expired entries are removed on access.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*memoryEntry)
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.order.Remove(elem)
		delete(m.items, key)
		return nil, false, nil
	}

	m.order.MoveToFront(elem)
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores value for ttl, evicting the least recently used entries when full.
// A non-positive ttl never expires.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		m.order.MoveToFront(elem)
		return nil
	}

	for m.order.Len() >= m.capacity {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		delete(m.items, oldest.Value.(*memoryEntry).key)
		m.order.Remove(oldest)
	}

	m.items[key] = m.order.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.order.Remove(elem)
		delete(m.items, key)
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
	return nil
}
