package viewer

import (
	"github.com/couchcryptid/geosight-viewer/internal/domain"
)

// DetailCache is a bounded LRU of event details keyed by event id.
// Recency is refreshed when an entry is stored and when its popup closes, so
// the details evicted first are the ones looked at longest ago.
//
// It is not safe for concurrent use; Session guards it with its own mutex.
type DetailCache struct {
	maxEntries int
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
	onEvict    func(id string)
}

type entry struct {
	key   string
	value domain.EventDetail
	prev  *entry
	next  *entry
}

// NewDetailCache creates a cache holding at most maxEntries details.
// A non-positive maxEntries means unbounded.
func NewDetailCache(maxEntries int) *DetailCache {
	return &DetailCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// Peek returns the cached detail without changing its recency.
func (c *DetailCache) Peek(id string) (domain.EventDetail, bool) {
	e, ok := c.entries[id]
	if !ok {
		return domain.EventDetail{}, false
	}
	return e.value, true
}

// Has reports whether id is cached.
func (c *DetailCache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Put stores a detail as the most recently used entry, evicting the least
// recently used one when the cache is full.
func (c *DetailCache) Put(id string, value domain.EventDetail) {
	if e, ok := c.entries[id]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: id, value: value}
	c.entries[id] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// Touch marks id as most recently used. It is a no-op for missing ids.
func (c *DetailCache) Touch(id string) {
	if e, ok := c.entries[id]; ok {
		c.moveToFront(e)
	}
}

// Len returns the number of cached details.
func (c *DetailCache) Len() int {
	return len(c.entries)
}

func (c *DetailCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *DetailCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *DetailCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *DetailCache) evictTail() {
	if c.tail == nil {
		return
	}
	key := c.tail.key
	delete(c.entries, key)
	c.remove(c.tail)
	if c.onEvict != nil {
		c.onEvict(key)
	}
}
