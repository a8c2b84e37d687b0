// Package sprite caches transformed drawable artifacts keyed by asset
// identity and quantized transform parameters, so the expensive
// scale/rotate/flip work runs at most once per unique transform between
// evictions.
package sprite

import (
	"errors"
	"math"
	"time"

	"github.com/hebedebe/TouchingJack2/engine/cache"
)

// Defaults for transform-parameter quantization. Finer steps give more
// exact rendering but a larger key space and lower hit rate; coarser steps
// snap visibly. Both are tunable via Config.
const (
	DefaultScaleStep    = 0.001
	DefaultRotationStep = 0.1 * math.Pi / 180
)

// RenderFunc produces the transformed artifact for a cache miss.
type RenderFunc func() (*Artifact, error)

// Config holds construction parameters for a TransformCache.
type Config struct {
	// CapacityBytes bounds the cached artifact bytes. Zero = unlimited.
	CapacityBytes int64

	// MaxEntries bounds the number of cached artifacts. Zero = unlimited.
	MaxEntries int

	// TTL expires artifacts that have not been re-rendered. Zero = none.
	TTL time.Duration

	// ScaleStep and RotationStep set the key quantization precision.
	// Zero selects the defaults above.
	ScaleStep    float64
	RotationStep float64
}

// TransformCache is the sprite transform cache: a bounded cache of
// immutable transformed artifacts. It is driven from the frame thread;
// background preloads may insert concurrently through the same methods.
type TransformCache struct {
	entries   *cache.Cache[Key, *Artifact]
	scaleStep float64
	rotStep   float64
}

// NewTransformCache creates a TransformCache from config.
// Evicted artifacts release their GPU textures through the cache's
// disposal hook.
func NewTransformCache(cfg Config) *TransformCache {
	scaleStep := cfg.ScaleStep
	if scaleStep <= 0 {
		scaleStep = DefaultScaleStep
	}
	rotStep := cfg.RotationStep
	if rotStep <= 0 {
		rotStep = DefaultRotationStep
	}

	return &TransformCache{
		entries: cache.New(cache.Config[Key, *Artifact]{
			CapacityBytes: cfg.CapacityBytes,
			MaxEntries:    cfg.MaxEntries,
			DefaultTTL:    cfg.TTL,
			OnEvict:       func(_ Key, a *Artifact) { a.Release() },
		}),
		scaleStep: scaleStep,
		rotStep:   rotStep,
	}
}

// GetOrCreate returns the cached artifact for (asset, params), rendering
// and caching it on a miss. Identical composite keys render at most once
// between evictions and always return the same artifact.
//
// An artifact too large for the cache is still returned, just not cached;
// the caller renders uncached rather than failing the frame.
func (t *TransformCache) GetOrCreate(asset string, params Params, render RenderFunc) (*Artifact, error) {
	key := t.keyFor(asset, params)

	if a, ok := t.entries.Get(key); ok {
		return a, nil
	}

	a, err := render()
	if err != nil {
		return nil, err
	}

	if err := t.entries.Put(key, a, a.SizeBytes()); err != nil {
		if errors.Is(err, cache.ErrEntryTooLarge) {
			return a, nil
		}
		return nil, err
	}
	return a, nil
}

// PutRendered offers a pre-rendered artifact for (asset, params), used by
// background preloading. It returns the artifact the cache now resolves
// the key to and whether the offered artifact was stored: false when the
// key already held another artifact (the existing one is returned) or
// when the artifact is too large to cache.
func (t *TransformCache) PutRendered(asset string, params Params, a *Artifact) (*Artifact, bool) {
	key := t.keyFor(asset, params)

	if existing, ok := t.entries.Get(key); ok {
		return existing, false
	}
	if err := t.entries.Put(key, a, a.SizeBytes()); err != nil {
		return a, false
	}
	return a, true
}

// Invalidate drops the cached artifact for one composite key, releasing
// its backing resources.
func (t *TransformCache) Invalidate(key Key) bool {
	return t.entries.Invalidate(key)
}

// InvalidateAsset drops every cached artifact for the given asset,
// whatever its transform params. Used when an asset is reloaded. Returns
// the number of artifacts dropped.
func (t *TransformCache) InvalidateAsset(asset string) int {
	return t.entries.InvalidateFunc(func(k Key) bool { return k.Asset == asset })
}

// Clear drops all cached artifacts.
func (t *TransformCache) Clear() {
	t.entries.Clear()
}

// Trim evicts artifacts until usage is at or below targetBytes.
// Satisfies the memory manager's Trimmer contract.
func (t *TransformCache) Trim(targetBytes int64) int64 {
	return t.entries.Trim(targetBytes)
}

// SweepExpired removes expired artifacts; called between frames.
func (t *TransformCache) SweepExpired() int {
	return t.entries.SweepExpired()
}

// SizeBytes returns the current cached artifact bytes.
func (t *TransformCache) SizeBytes() int64 {
	return t.entries.SizeBytes()
}

// CapacityBytes returns the configured byte capacity.
func (t *TransformCache) CapacityBytes() int64 {
	return t.entries.CapacityBytes()
}

// Stats returns the underlying cache statistics.
func (t *TransformCache) Stats() cache.Stats {
	return t.entries.Stats()
}

// keyFor computes the quantized composite key for (asset, params).
func (t *TransformCache) keyFor(asset string, params Params) Key {
	return quantize(asset, params, t.scaleStep, t.rotStep)
}
