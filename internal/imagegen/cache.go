package imagegen

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Cache keeps generated banners on disk, one PNG per condition_tod key, so a
// restart does not pay for regeneration.
type Cache struct {
	dir    string
	maxAge time.Duration
}

// NewCache creates a cache in dir. Banners older than maxAge are treated as
// missing; zero means a week.
func NewCache(dir string, maxAge time.Duration) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("imagegen: could not create cache dir %s: %v", dir, err)
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Cache{dir: dir, maxAge: maxAge}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("banner_%s.png", key))
}

// Get returns the banner for key if present and fresh.
func (c *Cache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Set(key string, data []byte) error {
	return os.WriteFile(c.path(key), data, 0o644)
}

// List returns the keys currently on disk, fresh or not.
func (c *Cache) List() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "banner_") || filepath.Ext(name) != ".png" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, "banner_"), ".png"))
	}
	return keys
}

// CardCache holds the most recent share card for a short period.
type CardCache struct {
	mu        sync.RWMutex
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
}

func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{ttl: ttl}
}

func (c *CardCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *CardCache) Set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.expiresAt = time.Now().Add(c.ttl)
}
