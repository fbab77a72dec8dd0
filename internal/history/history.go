/*
Package history tracks which disclosures have already been reported so that a
filing is never notified twice within the life of the process.
*/
package history

import (
	"strings"
	"sync"

	"github.com/shanehull/dartalert/internal/types"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 1000

// Mode selects which disclosure fields make up a dedup key.
type Mode int

const (
	// ModeStrict keys on company, title and receipt number.
	ModeStrict Mode = iota
	// ModeLoose keys on company and receipt number only.
	ModeLoose
)

// ParseMode maps a config value to a Mode, defaulting to ModeStrict.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "loose") {
		return ModeLoose
	}
	return ModeStrict
}

func (m Mode) String() string {
	if m == ModeLoose {
		return "loose"
	}
	return "strict"
}

// Key derives the dedup identity of a disclosure.
func Key(d types.Disclosure, mode Mode) string {
	if mode == ModeLoose {
		return d.CorpName + "|" + d.ReceiptNo
	}
	return d.CorpName + "|" + d.Title + "|" + d.ReceiptNo
}

// Cache is an insertion-ordered set of keys. Once full, the oldest key is
// evicted to make room for a new one.
type Cache struct {
	mutex    sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	head     int
}

// NewCache returns an empty cache holding at most capacity keys.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *Cache) Contains(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.seen[key]
	return ok
}

// Add records key. Adding a key that is already present does not refresh its
// position.
func (c *Cache) Add(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.seen[key]; ok {
		return
	}

	if len(c.order) < c.capacity {
		c.order = append(c.order, key)
		c.seen[key] = struct{}{}
		return
	}

	// order is a ring once full; head points at the oldest key.
	delete(c.seen, c.order[c.head])
	c.order[c.head] = key
	c.seen[key] = struct{}{}
	c.head = (c.head + 1) % c.capacity
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.seen)
}

func (c *Cache) Cap() int {
	return c.capacity
}
