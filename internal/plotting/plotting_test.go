package plotting

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/antideriv"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderProducesPNG(t *testing.T) {
	res, err := antideriv.New().Reconstruct(context.Background(), antideriv.Request{
		Derivative: "x^2 - 1",
		Order:      antideriv.First,
		Conditions: "f(0)=0",
	})
	require.NoError(t, err)

	fig, warnings, err := NewFigure(res, -3, 3, 200)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []float64{-1, 1}, fig.Critical)
	assert.Equal(t, []float64{0}, fig.Inflection)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "PNG signature")
}

func TestRenderSkipsNaNSegments(t *testing.T) {
	res, err := antideriv.New().Reconstruct(context.Background(), antideriv.Request{
		Derivative: "1/x",
		Order:      antideriv.First,
		Conditions: "f(1)=0",
	})
	require.NoError(t, err)
	fig, warnings, err := NewFigure(res, -2, 2, 101)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, DefaultOptions))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderRejectsEmptyFigure(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, Figure{}, DefaultOptions))
}

func TestSegments(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6}
	ys := []float64{0, 1, math.NaN(), 3, 4, math.Inf(1), 6}
	segs := segments(xs, ys)
	require.Len(t, segs, 2, "single-point runs are dropped")
	assert.Len(t, segs[0], 2)
	assert.Len(t, segs[1], 2)
}

func TestFiniteRange(t *testing.T) {
	lo, hi, ok := finiteRange([]float64{math.NaN(), 2, 2})
	require.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 3.0, hi)

	_, _, ok = finiteRange([]float64{math.NaN()})
	assert.False(t, ok)
}
