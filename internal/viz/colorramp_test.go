package viz

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/tableviz/internal/models"
)

func defaultRamp(t *testing.T) *Ramp {
	t.Helper()
	r, err := BuildRamp(models.DefaultColorMap)
	require.NoError(t, err)
	return r
}

func TestRampEndsMatchStops(t *testing.T) {
	r := defaultRamp(t)

	assert.True(t, r.ColorByValue())
	assert.Equal(t, color.NRGBA{32, 0, 200, 255}, r.Sample(0, true))
	assert.Equal(t, color.NRGBA{200, 0, 0, 255}, r.Sample(1, true))
	assert.Equal(t, r.At(0), r.Sample(0.001, true))
	assert.Equal(t, r.At(RampSize-1), r.Sample(1, true))
}

func TestRampInterpolates(t *testing.T) {
	r, err := BuildRamp([]models.ColorStop{
		{Offset: 0, Color: color.NRGBA{0, 0, 0, 0}},
		{Offset: 1, Color: color.NRGBA{255, 255, 255, 255}},
	})
	require.NoError(t, err)

	for i := 0; i < RampSize; i++ {
		c := r.At(i)
		assert.InDelta(t, i, int(c.R), 1)
		assert.InDelta(t, i, int(c.A), 1)
	}
}

func TestSampleClampsIndex(t *testing.T) {
	r := defaultRamp(t)

	assert.Equal(t, r.Sample(1, true), r.Sample(1.7, true))
	assert.Equal(t, r.Sample(0, true), r.Sample(-0.3, true))
	assert.Equal(t, r.At(0), r.At(-10))
	assert.Equal(t, r.At(RampSize-1), r.At(RampSize+10))
}

func TestSampleNoData(t *testing.T) {
	r := defaultRamp(t)
	assert.Equal(t, DefaultNoDataColor, r.Sample(0.5, false))

	r.NoDataColor = color.NRGBA{128, 128, 128, 255}
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, r.Sample(0.5, false))
}

func TestSingleStopRampIsFixedColor(t *testing.T) {
	fixed := color.NRGBA{10, 20, 30, 255}
	r, err := BuildRamp([]models.ColorStop{{Offset: 0, Color: fixed}})
	require.NoError(t, err)

	assert.False(t, r.ColorByValue())
	assert.Equal(t, fixed, r.Sample(0, true))
	assert.Equal(t, fixed, r.Sample(0.8, true))
	assert.Equal(t, fixed, r.Sample(0, false))
}

func TestBuildRampRejectsBadStops(t *testing.T) {
	_, err := BuildRamp(nil)
	assert.ErrorIs(t, err, ErrEmptyColorMap)

	_, err = BuildRamp([]models.ColorStop{{Offset: 0.5}, {Offset: 0.2}})
	assert.ErrorIs(t, err, ErrBadOffset)

	_, err = BuildRamp([]models.ColorStop{{Offset: 0}, {Offset: 1.5}})
	assert.ErrorIs(t, err, ErrBadOffset)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"rgba(32,0,200,1.0)", color.NRGBA{32, 0, 200, 255}},
		{"rgba(0, 0, 0, 0.5)", color.NRGBA{0, 0, 0, 128}},
		{"rgb(1,2,3)", color.NRGBA{1, 2, 3, 255}},
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"#0F0", color.NRGBA{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"blue", "rgba(1,2,3)", "rgb(a,b,c)", "#zzzzzz"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseColorStopsKeepsCSS(t *testing.T) {
	stops, err := ParseColorStops([]models.ColorStopInput{
		{Offset: 0, Color: "rgba(32,0,200,1.0)"},
		{Offset: 1, Color: "#c80000"},
	})
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "#c80000", stops[1].CSS)
	assert.Equal(t, color.NRGBA{200, 0, 0, 255}, stops[1].Color)
}
