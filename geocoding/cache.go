package geocoding

import (
	"arcgo/geometry"
	"arcgo/metrics"
	"context"
	"fmt"
	"slices"
	"sync"
)

const (
	cacheMethodForward = "forward"
	cacheMethodReverse = "reverse"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Only non-empty results are cached, so addresses that
// weren't found are asked for again. Callers get copies, so changing a result doesn't change the cache.
type CachedGeocoder struct {
	inner   Geocoder
	forward *lruCache[string, []Candidate]
	reverse *lruCache[string, *Address]
	metrics *metrics.Metrics
}

func NewCachedGeocoder(inner Geocoder, maxEntries int, m *metrics.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		forward: newLRUCache[string, []Candidate](maxEntries),
		reverse: newLRUCache[string, *Address](maxEntries),
		metrics: m,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string, maxLocations int) ([]Candidate, error) {
	key := fmt.Sprintf("%s|%d", address, maxLocations)
	if candidates, ok := c.forward.get(key); ok {
		c.count(cacheMethodForward, true)
		return slices.Clone(candidates), nil
	}
	c.count(cacheMethodForward, false)

	candidates, err := c.inner.Geocode(ctx, address, maxLocations)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		c.forward.put(key, slices.Clone(candidates))
	}
	return candidates, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, location geometry.Point) (*Address, error) {
	key := fmt.Sprintf("%.6f,%.6f@%d", location.X(), location.Y(), location.SR.WKID)
	if address, ok := c.reverse.get(key); ok {
		c.count(cacheMethodReverse, true)
		cached := *address
		return &cached, nil
	}
	c.count(cacheMethodReverse, false)

	address, err := c.inner.ReverseGeocode(ctx, location)
	if err != nil {
		return nil, err
	}
	if address != nil {
		cached := *address
		c.reverse.put(key, &cached)
	}
	return address, nil
}

// BatchGeocode answers cached addresses directly and passes the remaining ones, each only once, to the batch geocode
// of the wrapped geocoder.
func (c *CachedGeocoder) BatchGeocode(ctx context.Context, addresses []string) ([]BatchResult, error) {
	results := notFound(addresses)

	var misses []string
	missIndices := map[string][]int{}
	for i, address := range addresses {
		if candidates, ok := c.forward.get(batchKey(address)); ok {
			c.count(cacheMethodForward, true)
			results[i].Found = true
			results[i].Candidate = candidates[0]
			continue
		}

		if _, ok := missIndices[address]; !ok {
			c.count(cacheMethodForward, false)
			misses = append(misses, address)
		}
		missIndices[address] = append(missIndices[address], i)
	}

	if len(misses) == 0 {
		return results, nil
	}

	missResults, err := c.inner.BatchGeocode(ctx, misses)
	if err != nil {
		return nil, err
	}

	for _, missResult := range missResults {
		if !missResult.Found {
			continue
		}
		c.forward.put(batchKey(missResult.Input), []Candidate{missResult.Candidate})
		for _, i := range missIndices[missResult.Input] {
			results[i].Found = true
			results[i].Candidate = missResult.Candidate
		}
	}

	return results, nil
}

// batchKey equals the key of a single lookup with one location, which is what a batch result holds.
func batchKey(address string) string {
	return fmt.Sprintf("%s|%d", address, 1)
}

func (c *CachedGeocoder) count(method string, hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.GeocodeCache.WithLabelValues(method, result).Inc()
}

// lruCache is a thread-safe LRU cache. A capacity of 0 or less disables caching.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mutex      sync.Mutex
	entries    map[K]*lruEntry[K, V]
	head       *lruEntry[K, V] // most recently used
	tail       *lruEntry[K, V] // least recently used
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
	prev  *lruEntry[K, V]
	next  *lruEntry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*lruEntry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var empty V
		return empty, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	if c.maxEntries <= 0 {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &lruEntry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *lruEntry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *lruEntry[K, V]) {
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

func (c *lruCache[K, V]) remove(e *lruEntry[K, V]) {
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

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
