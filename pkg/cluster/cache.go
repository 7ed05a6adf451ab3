package cluster

import "sync"

// Cache holds the last computed partition keyed by a caller-supplied graph
// version token. It is never silently stale: a lookup with a different
// token misses, and invalidation is explicit. Safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	version   string
	partition *Partition
}

// Get returns the cached partition if the version token matches.
func (c *Cache) Get(version string) (*Partition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version == "" || c.partition == nil || c.version != version {
		return nil, false
	}
	return c.partition, true
}

// Put stores a partition under the given version token. An empty token is
// ignored: unversioned results are not cacheable.
func (c *Cache) Put(version string, p *Partition) {
	if version == "" || p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = version
	c.partition = p
}

// Invalidate drops the cached partition.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = ""
	c.partition = nil
}
