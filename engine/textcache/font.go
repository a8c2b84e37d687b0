package textcache

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
)

// ErrEmptyFontData is returned when a font source is created without data.
var ErrEmptyFontData = errors.New("textcache: empty font data")

var nextFontID atomic.Uint64

// FontSource represents a loaded font file (TTF or OTF). One FontSource is
// shared across every size it is shaped at; the parsed font is cached on
// first use. FontSource is safe for concurrent use.
type FontSource struct {
	id   uint64
	name string
	data []byte

	mu     sync.Mutex
	parsed *font.Font
}

// NewFontSource creates a FontSource from font data. The data slice is
// copied internally and can be reused after this call.
func NewFontSource(name string, data []byte) (*FontSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	return &FontSource{
		id:   nextFontID.Add(1),
		name: name,
		data: bytes.Clone(data),
	}, nil
}

// ID returns the process-unique identifier for this source. It is part of
// every shaping cache key, so two sources loaded from identical bytes still
// cache independently.
func (s *FontSource) ID() uint64 { return s.id }

// Name returns the name the source was registered under.
func (s *FontSource) Name() string { return s.name }

// parsedFont parses the font data on first use and caches the result.
// font.Font is read-only and safe for concurrent use; font.Face is not,
// so callers wrap the Font in a fresh Face per shaping call.
func (s *FontSource) parsedFont() (*font.Font, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parsed != nil {
		return s.parsed, nil
	}
	face, err := font.ParseTTF(bytes.NewReader(s.data))
	if err != nil {
		return nil, err
	}
	s.parsed = face.Font
	return s.parsed, nil
}
