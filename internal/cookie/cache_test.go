package cookie

import (
	"bytes"
	"net"
	"testing"
)

func TestCacheGetPutRoundTrip(t *testing.T) {
	c := NewCache(16)
	ip := net.ParseIP("198.51.100.1")
	opt := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if _, ok := c.Get(ip, 53); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}
	if err := c.Put(ip, 53, opt); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := c.Get(ip, 53)
	if !ok {
		t.Fatal("Get() after Put() reported a miss")
	}
	if !bytes.Equal(got, opt) {
		t.Errorf("Get() = %x, want %x", got, opt)
	}
}

func TestCacheDistinguishesPort(t *testing.T) {
	c := NewCache(16)
	ip := net.ParseIP("198.51.100.1")
	if err := c.Put(ip, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := c.Get(ip, 5353); ok {
		t.Error("Get() matched an entry keyed under a different port")
	}
}

func TestCacheDistinguishesAddressFamily(t *testing.T) {
	c := NewCache(16)
	v4 := net.ParseIP("198.51.100.1")
	v6 := net.ParseIP("::198.51.100.1")

	if err := c.Put(v4, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := c.Get(v6, 53); ok {
		t.Error("Get() matched a v4 entry from a v6 lookup")
	}
}

func TestCachePutRejectsOversizedOption(t *testing.T) {
	c := NewCache(16)
	err := c.Put(net.ParseIP("198.51.100.1"), 53, make([]byte, 41))
	if err != ErrOutOfCapacity {
		t.Errorf("Put() error = %v, want ErrOutOfCapacity", err)
	}
}

func TestCacheIsBoundedByCapacity(t *testing.T) {
	const capacity = 4
	c := NewCache(capacity)

	for i := 0; i < capacity*4; i++ {
		ip := net.IPv4(198, 51, 100, byte(i))
		if err := c.Put(ip, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	if got := c.Len(); got > capacity {
		t.Errorf("Len() = %d, want <= %d", got, capacity)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	const capacity = 2
	c := NewCache(capacity)

	ipA := net.IPv4(198, 51, 100, 1)
	ipB := net.IPv4(198, 51, 100, 2)
	ipC := net.IPv4(198, 51, 100, 3)

	c.Put(ipA, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	c.Put(ipB, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	// Touch A so B becomes the least recently used entry.
	c.Get(ipA, 53)

	c.Put(ipC, 53, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	if _, ok := c.Get(ipB, 53); ok {
		t.Error("Get(ipB) should have been evicted as least recently used")
	}
	if _, ok := c.Get(ipA, 53); !ok {
		t.Error("Get(ipA) should still be present; it was touched before the eviction")
	}
	if _, ok := c.Get(ipC, 53); !ok {
		t.Error("Get(ipC) should be present; it was just inserted")
	}
}

func TestNewCacheFallsBackOnNonPositiveCapacity(t *testing.T) {
	c := NewCache(0)
	if c.lru == nil {
		t.Fatal("NewCache(0) produced a cache with no backing store")
	}
}
