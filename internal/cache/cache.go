// Package cache stores finished analyses keyed by everything that can
// change their outcome.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/symptia/internal/model"
)

const keyPrefix = "symptia:v1:"

// Cache is a byte store with per-entry expiry
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey hashes the parts in order. Parts are length-prefixed so
// ("ab","c") and ("a","bc") give different keys.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// GetJSON decodes a cached value into v. Undecodable entries are misses.
func GetJSON(c Cache, key string, v any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it under key
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}

// New builds the cache described by cfg. The disk layer is only added when
// persistent is set, because results are only reproducible across processes
// for a seeded network.
func New(cfg model.CacheConfig, persistent bool) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	if !persistent || cfg.Dir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.Dir, cfg.DiskTTL), cfg.MemoryTTL)
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) {
	return nil, false
}

func (Noop) Set(string, []byte, time.Duration) error {
	return nil
}

func (Noop) Delete(string) error {
	return nil
}

func (Noop) Clear() error {
	return nil
}

// fileName maps a key onto a portable file name
func fileName(dir, key string) string {
	return filepath.Join(dir, strings.ReplaceAll(key, ":", "_")+".json")
}
