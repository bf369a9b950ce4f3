package codec

import "container/heap"

// CacheType separates strings by how a back-reference to them is decoded.
type CacheType uint8

const (
	// CacheStandalone entries point at raw string bytes.
	CacheStandalone CacheType = iota
	// CachePrefixLengthVarintPlusOne entries point at a byte-length+1 varint
	// prefix followed by the bytes, or at a back-reference to one.
	CachePrefixLengthVarintPlusOne
)

const (
	// DefaultCacheSize is the default byte budget of a session cache.
	DefaultCacheSize = 20 << 20
	// MinimumCachedLength is the shortest string worth a back-reference.
	MinimumCachedLength = 3
)

type cacheKey struct {
	value string
	kind  CacheType
}

type cacheEntry struct {
	offset uint64
	key    cacheKey
}

// offsetHeap orders entries by offset, lowest first. It may hold stale
// entries for keys that were bumped or evicted.
type offsetHeap []cacheEntry

func (h offsetHeap) Len() int           { return len(h) }
func (h offsetHeap) Less(i, j int) bool { return h[i].offset < h[j].offset }
func (h offsetHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *offsetHeap) Push(x any)        { *h = append(*h, x.(cacheEntry)) }
func (h *offsetHeap) Pop() any {
	old := *h
	e := old[len(old)-1]
	*h = old[:len(old)-1]
	return e
}

// Cache remembers the stream offsets of strings already written in a
// session. Its total volume, counted in string bytes, never exceeds its
// budget; the entries with the lowest offsets are evicted first.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	noCopy noCopy

	budget  uint64
	size    uint64
	offsets map[cacheKey]uint64
	order   offsetHeap
}

// NewCache returns an empty cache holding at most budget bytes of strings.
func NewCache(budget uint64) *Cache {
	return &Cache{budget: budget, offsets: map[cacheKey]uint64{}}
}

// Record notes that value was written at offset. Strings shorter than
// MinimumCachedLength or larger than the whole budget are ignored. Recording
// a known string only moves it to a later offset.
func (c *Cache) Record(value string, offset uint64, kind CacheType) {
	length := uint64(len(value))
	if length < MinimumCachedLength || length > c.budget {
		return
	}
	key := cacheKey{value, kind}
	if current, ok := c.offsets[key]; ok {
		if offset > current {
			c.offsets[key] = offset
			heap.Push(&c.order, cacheEntry{offset, key})
			c.compact()
		}
		return
	}
	for c.size+length > c.budget {
		c.RemoveOldest()
	}
	c.offsets[key] = offset
	c.size += length
	heap.Push(&c.order, cacheEntry{offset, key})
}

// Find returns the latest recorded offset of value.
func (c *Cache) Find(value string, kind CacheType) (uint64, bool) {
	offset, ok := c.offsets[cacheKey{value, kind}]
	return offset, ok
}

// RemoveOldest evicts the entry with the lowest offset.
func (c *Cache) RemoveOldest() {
	for c.order.Len() > 0 {
		e := heap.Pop(&c.order).(cacheEntry)
		if current, ok := c.offsets[e.key]; ok && current == e.offset {
			delete(c.offsets, e.key)
			c.size -= uint64(len(e.key.value))
			return
		}
	}
}

// Size is the number of string bytes held.
func (c *Cache) Size() uint64 { return c.size }

// Len is the number of strings held.
func (c *Cache) Len() int { return len(c.offsets) }

// compact drops stale heap entries once they outnumber live ones.
func (c *Cache) compact() {
	if c.order.Len() <= 2*len(c.offsets)+64 {
		return
	}
	live := c.order[:0]
	for _, e := range c.order {
		if current, ok := c.offsets[e.key]; ok && current == e.offset {
			live = append(live, e)
		}
	}
	c.order = live
	heap.Init(&c.order)
}
