package textcache

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// GlyphID is a glyph index within a font.
type GlyphID uint16

// Direction is the horizontal direction of a shaped run.
type Direction uint8

const (
	// DirectionLTR is left-to-right text (English, French, ...).
	DirectionLTR Direction = iota
	// DirectionRTL is right-to-left text (Arabic, Hebrew, ...).
	DirectionRTL
)

// ShapedGlyph is one positioned glyph of a shaped run.
type ShapedGlyph struct {
	// GID is the glyph index in the font.
	GID GlyphID

	// Cluster is the source rune index in the original text, used for
	// hit testing and cursor positioning.
	Cluster int

	// X and Y position the glyph relative to the run origin and baseline.
	X, Y float64

	// XAdvance is the horizontal advance to the next glyph.
	XAdvance float64
}

// Run is the immutable result of shaping one string at one size. It is what
// the text cache stores; callers must not mutate Glyphs.
type Run struct {
	Glyphs    []ShapedGlyph
	Advance   float64
	Direction Direction
}

// sizeBytes estimates the memory held by the run for cache accounting.
func (r *Run) sizeBytes() int64 {
	const glyphSize = 40 // struct size of ShapedGlyph
	return int64(len(r.Glyphs))*glyphSize + 32
}

// Shaper turns strings into positioned glyph runs using HarfBuzz shaping.
// It is safe for concurrent use: parsed fonts are cached per source and the
// non-concurrent-safe HarfbuzzShaper instances are pooled.
type Shaper struct {
	pool sync.Pool
}

// NewShaper creates a Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape shapes text in the given font at the given pixel size and returns
// the positioned run. The direction is detected from the text itself.
func (s *Shaper) Shape(text string, src *FontSource, size float64) (*Run, error) {
	if text == "" {
		return &Run{}, nil
	}

	parsed, err := src.parsedFont()
	if err != nil {
		return nil, err
	}

	dir := DetectDirection(text)
	runes := []rune(text)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: mapDirection(dir),
		// font.Face is not safe for concurrent use; wrap the shared
		// Font in a fresh Face per call.
		Face:     font.NewFace(parsed),
		Size:     fixed.Int26_6(size * 64),
		Script:   detectScript(runes),
		Language: language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	run := &Run{
		Glyphs:    make([]ShapedGlyph, len(output.Glyphs)),
		Direction: dir,
	}
	var x float64
	for i, g := range output.Glyphs {
		run.Glyphs[i] = ShapedGlyph{
			GID:      GlyphID(uint16(g.GlyphID)),
			Cluster:  g.TextIndex(),
			X:        x + float64(g.XOffset)/64,
			Y:        float64(g.YOffset) / 64,
			XAdvance: float64(g.Advance) / 64,
		}
		x += float64(g.Advance) / 64
	}
	run.Advance = x
	return run, nil
}

// DetectDirection resolves the base direction of a paragraph using the
// Unicode bidi algorithm. Neutral text defaults to LTR.
func DetectDirection(text string) Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return DirectionLTR
	}
	if p.IsLeftToRight() {
		return DirectionLTR
	}
	return DirectionRTL
}

func mapDirection(d Direction) di.Direction {
	if d == DirectionRTL {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune. Mixed-script
// text should be split into runs before shaping.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
