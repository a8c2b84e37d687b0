package textcache

import (
	"hash/fnv"
	"math"
)

// Key identifies a shaped run in the cache. Every shaping parameter that
// affects the result is part of the key: the text (hashed), the font source,
// the size, and the resolved direction.
type Key struct {
	// TextHash is the FNV-1a hash of the text string.
	TextHash uint64

	// FontID is the font source identifier.
	FontID uint64

	// SizeBits is the IEEE 754 bit pattern of the font size. Using the
	// bit pattern gives exact matching without floating-point comparison.
	SizeBits uint32

	// Direction is the resolved base direction.
	Direction Direction
}

// NewKey builds the cache key for (text, font, size).
func NewKey(text string, src *FontSource, size float64) Key {
	return Key{
		TextHash:  hashString(text),
		FontID:    src.ID(),
		SizeBits:  math.Float32bits(float32(size)),
		Direction: DetectDirection(text),
	}
}

// hashString computes the FNV-1a hash of a string. FNV-1a is fast and has
// good distribution for short text keys.
func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
