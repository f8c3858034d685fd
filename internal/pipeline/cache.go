package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of validated pipelines kept by default.
const DefaultCacheSize = 64

// Cache memoizes validated pipelines by configuration. It is safe for
// concurrent use.
type Cache struct {
	cache *lru.Cache[string, *Pipeline]
	opts  []Option
}

// NewCache creates a cache holding up to size pipelines. Options are
// applied to every pipeline the cache builds.
func NewCache(size int, opts ...Option) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, *Pipeline](size)
	return &Cache{cache: cache, opts: opts}
}

// Get returns the cached pipeline for cfg, building it on a miss.
// Configuration errors are not cached.
func (c *Cache) Get(cfg Config) (*Pipeline, error) {
	key, ok := fingerprint(cfg)
	if ok {
		if p, hit := c.cache.Get(key); hit {
			return p, nil
		}
	}

	p, err := New(cfg, c.opts...)
	if err != nil {
		return nil, err
	}
	if ok {
		c.cache.Add(key, p)
	}
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *Cache) Len() int { return c.cache.Len() }

// fingerprint hashes the canonical JSON form of cfg. Map keys are sorted by
// encoding/json, so equal configurations share a key.
func fingerprint(cfg Config) (string, bool) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", false
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), true
}
