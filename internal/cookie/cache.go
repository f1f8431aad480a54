package cookie

import (
	"net"
	"sync"

	"github.com/golang/groupcache/lru"
)

const defaultCacheCapacity = 4096

// Cache is the bounded, LRU-evicting mapping from canonicalized upstream
// address to the most recently accepted COOKIE option bytes (§4.D). It never
// itself vouches for the validity of what it returns; callers re-validate on
// every read.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewCache creates a cache bounded to capacity entries. A non-positive
// capacity falls back to a sane default rather than the unbounded behavior
// lru.Cache gives a zero MaxEntries, since an unbounded cookie cache would
// violate §4.D's bounded-capacity contract.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &Cache{lru: lru.New(capacity)}
}

// cacheKey canonicalizes an upstream address as family-tag ∥ address-bytes ∥
// big-endian port, per §3's "Cache entry" data model.
func cacheKey(ip net.IP, port int) string {
	var b []byte
	if v4 := ip.To4(); v4 != nil {
		b = make([]byte, 0, 1+4+2)
		b = append(b, 4)
		b = append(b, v4...)
	} else {
		b = make([]byte, 0, 1+16+2)
		b = append(b, 6)
		b = append(b, ip.To16()...)
	}
	b = append(b, byte(port>>8), byte(port))
	return string(b)
}

// Get returns the last accepted COOKIE option bytes for (ip, port), if any.
func (c *Cache) Get(ip net.IP, port int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(cacheKey(ip, port))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Put inserts or replaces the cached option for (ip, port). Re-inserting the
// same bytes under the same key is idempotent and still counts as one entry.
func (c *Cache) Put(ip net.IP, port int, option []byte) error {
	if len(option) > maxOptionValue {
		return ErrOutOfCapacity
	}
	cp := append([]byte(nil), option...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(cacheKey(ip, port), cp)
	return nil
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
