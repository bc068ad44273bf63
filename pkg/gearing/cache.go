package gearing

import "sync"

type cacheKey struct {
	teeth, partner int
	module         float64
	isWheel        bool
	opts           options
}

// Cache memoizes Build. The zero value is ready to use and safe to share.
type Cache struct {
	mu       sync.Mutex
	profiles map[cacheKey]Profile
	hits     int
}

// Build returns a cached profile or builds and stores a new one. Errors
// are not cached.
func (c *Cache) Build(teeth, partner int, module float64, isWheel bool, opts ...Option) (Profile, error) {
	key := cacheKey{teeth: teeth, partner: partner, module: module, isWheel: isWheel, opts: resolve(opts)}

	c.mu.Lock()
	if p, ok := c.profiles[key]; ok {
		c.hits++
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := Build(teeth, partner, module, isWheel, opts...)
	if err != nil {
		return Profile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profiles == nil {
		c.profiles = make(map[cacheKey]Profile)
	}
	c.profiles[key] = p
	return p, nil
}

// Len returns the number of cached profiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.profiles)
}

// Hits returns how many Build calls were served from the cache.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
