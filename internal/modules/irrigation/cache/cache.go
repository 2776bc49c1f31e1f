// Package cache memoizes parsed uploads by content so repeated renders of the
// same file do not parse it again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
)

// LoadFunc parses raw upload bytes.
type LoadFunc func(raw []byte) (*analysis.Table, error)

// TableCache maps a content key to its parsed table. Entries are written once
// and only removed through Invalidate.
type TableCache struct {
	mu      sync.Mutex
	entries map[string]*analysis.Table
	load    LoadFunc
	logger  *slog.Logger
}

func New(load LoadFunc, logger *slog.Logger) *TableCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableCache{
		entries: make(map[string]*analysis.Table),
		load:    load,
		logger:  logger,
	}
}

// Key returns the content key of raw.
func Key(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached table for key.
func (c *TableCache) Get(key string) (*analysis.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[key]
	return t, ok
}

// Load returns the table for raw, parsing it only on the first call for that
// content. Parse failures are not cached.
func (c *TableCache) Load(raw []byte) (string, *analysis.Table, error) {
	key := Key(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.entries[key]; ok {
		c.logger.Debug("table cache hit", "key", key)
		return key, t, nil
	}

	t, err := c.load(raw)
	if err != nil {
		return key, nil, err
	}
	c.entries[key] = t
	c.logger.Debug("table cache fill", "key", key, "rows", t.Len())
	return key, t, nil
}

// Invalidate drops key from the cache.
func (c *TableCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.logger.Debug("table cache invalidated", "key", key)
	}
}

func (c *TableCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
