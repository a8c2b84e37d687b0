// Package textcache caches shaped text runs so HUD and UI strings that
// repeat across frames are shaped once instead of every draw. Shaping is by
// far the most expensive step of text rendering; score counters and labels
// change rarely relative to the frame rate.
package textcache

import (
	"time"

	"github.com/hebedebe/TouchingJack2/engine/cache"
)

// Config holds construction parameters for a TextCache.
type Config struct {
	// CapacityBytes bounds the cached run bytes. Zero = unlimited.
	CapacityBytes int64

	// MaxEntries bounds the number of cached runs. Zero = unlimited.
	MaxEntries int

	// TTL expires runs that have not been reshaped. Zero = none.
	TTL time.Duration
}

// TextCache is a bounded cache of shaped text runs keyed by text, font,
// size, and direction. Safe for concurrent use.
type TextCache struct {
	shaper  *Shaper
	entries *cache.Cache[Key, *Run]
}

// New creates a TextCache from config.
func New(cfg Config) *TextCache {
	return &TextCache{
		shaper: NewShaper(),
		entries: cache.New(cache.Config[Key, *Run]{
			CapacityBytes: cfg.CapacityBytes,
			MaxEntries:    cfg.MaxEntries,
			DefaultTTL:    cfg.TTL,
		}),
	}
}

// GetOrShape returns the shaped run for (text, font, size), shaping and
// caching it on a miss. Identical inputs shape at most once between
// evictions and return the same run.
//
// A run too large for the cache is still returned, just not cached.
func (t *TextCache) GetOrShape(text string, src *FontSource, size float64) (*Run, error) {
	key := NewKey(text, src, size)

	if r, ok := t.entries.Get(key); ok {
		return r, nil
	}

	r, err := t.shaper.Shape(text, src, size)
	if err != nil {
		return nil, err
	}
	// Oversized runs fall back to uncached shaping.
	_ = t.entries.Put(key, r, r.sizeBytes())
	return r, nil
}

// Invalidate drops the cached run for a key.
func (t *TextCache) Invalidate(key Key) bool {
	return t.entries.Invalidate(key)
}

// Clear drops all cached runs.
func (t *TextCache) Clear() {
	t.entries.Clear()
}

// Trim evicts runs until usage is at or below targetBytes.
// Satisfies the memory manager's Trimmer contract.
func (t *TextCache) Trim(targetBytes int64) int64 {
	return t.entries.Trim(targetBytes)
}

// SweepExpired removes expired runs; called between frames.
func (t *TextCache) SweepExpired() int {
	return t.entries.SweepExpired()
}

// SizeBytes returns the current cached run bytes.
func (t *TextCache) SizeBytes() int64 {
	return t.entries.SizeBytes()
}

// Stats returns the underlying cache statistics.
func (t *TextCache) Stats() cache.Stats {
	return t.entries.Stats()
}
