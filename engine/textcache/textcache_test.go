package textcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func testFont(t *testing.T) *FontSource {
	t.Helper()
	src, err := NewFontSource("goregular", goregular.TTF)
	require.NoError(t, err)
	return src
}

func TestGetOrShapeCachesRun(t *testing.T) {
	tc := New(Config{CapacityBytes: 1 << 20})
	src := testFont(t)

	first, err := tc.GetOrShape("Hello", src, 16)
	require.NoError(t, err)
	require.Len(t, first.Glyphs, 5)

	second, err := tc.GetOrShape("Hello", src, 16)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeat shaping must return the cached run")

	stats := tc.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestShapedRunPositions(t *testing.T) {
	tc := New(Config{})
	src := testFont(t)

	run, err := tc.GetOrShape("Hello", src, 16)
	require.NoError(t, err)

	var prevX float64
	for i, g := range run.Glyphs {
		assert.Positive(t, g.XAdvance, "glyph %d advance", i)
		if i > 0 {
			assert.Greater(t, g.X, prevX, "glyph %d must advance", i)
		}
		prevX = g.X
	}
	assert.Positive(t, run.Advance)
	assert.Equal(t, DirectionLTR, run.Direction)
}

func TestDistinctInputsShapeSeparately(t *testing.T) {
	tc := New(Config{})
	src := testFont(t)

	_, err := tc.GetOrShape("Hello", src, 16)
	require.NoError(t, err)
	_, err = tc.GetOrShape("World", src, 16)
	require.NoError(t, err)
	// Same text, different size: separate key.
	_, err = tc.GetOrShape("Hello", src, 24)
	require.NoError(t, err)

	assert.Equal(t, 3, tc.Stats().Len)
}

func TestTwoSourcesCacheIndependently(t *testing.T) {
	tc := New(Config{})
	a := testFont(t)
	b := testFont(t)
	require.NotEqual(t, a.ID(), b.ID())

	_, err := tc.GetOrShape("Hello", a, 16)
	require.NoError(t, err)
	_, err = tc.GetOrShape("Hello", b, 16)
	require.NoError(t, err)

	assert.Equal(t, 2, tc.Stats().Len)
}

func TestEmptyTextShapesEmptyRun(t *testing.T) {
	tc := New(Config{})
	src := testFont(t)

	run, err := tc.GetOrShape("", src, 16)
	require.NoError(t, err)
	assert.Empty(t, run.Glyphs)
	assert.Zero(t, run.Advance)
}

func TestDetectDirection(t *testing.T) {
	assert.Equal(t, DirectionLTR, DetectDirection("Hello"))
	assert.Equal(t, DirectionLTR, DetectDirection("123"))
	assert.Equal(t, DirectionRTL, DetectDirection("שלום")) // Hebrew
	assert.Equal(t, DirectionRTL, DetectDirection("مرحبا")) // Arabic
}

func TestTrimEvictsRuns(t *testing.T) {
	tc := New(Config{})
	src := testFont(t)

	for i := range 8 {
		_, err := tc.GetOrShape(fmt.Sprintf("label %d", i), src, 16)
		require.NoError(t, err)
	}
	require.Positive(t, tc.SizeBytes())

	tc.Trim(0)
	assert.Equal(t, int64(0), tc.SizeBytes())
	assert.Equal(t, 0, tc.Stats().Len)
}

func TestNewFontSourceRejectsEmptyData(t *testing.T) {
	_, err := NewFontSource("empty", nil)
	assert.ErrorIs(t, err, ErrEmptyFontData)
}
