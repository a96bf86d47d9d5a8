package viz

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/tableviz/internal/models"
)

func TestApplyPatch(t *testing.T) {
	base := models.DefaultStyle()
	base.MinDisplayValue = ptr(3)
	base.RegionType = "STE"

	scale := 2.5
	ticks := 3
	got, err := ApplyPatch(base, models.StylePatch{
		Scale:        &scale,
		LegendTicks:  &ticks,
		DataVariable: "rain",
		ColorMap: []models.ColorStopInput{
			{Offset: 0, Color: "#000000"},
			{Offset: 1, Color: "rgba(255,255,255,1.0)"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2.5, got.Scale)
	assert.Equal(t, 3, got.LegendTicks)
	assert.True(t, got.ClampDisplayValue, "unset fields keep their value")
	assert.Nil(t, got.MinDisplayValue, "bounds are always replaced")
	assert.Empty(t, got.RegionType)
	assert.Equal(t, "rain", got.DataVariable)
	require.Len(t, got.ColorMap, 2)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, got.ColorMap[1].Color)
	assert.Equal(t, 3.0, *base.MinDisplayValue, "input style is not modified")
}

func TestApplyPatchValidates(t *testing.T) {
	base := models.DefaultStyle()

	_, err := ApplyPatch(base, models.StylePatch{ColorMap: []models.ColorStopInput{{Offset: 0, Color: "nope"}}})
	assert.Error(t, err)

	_, err = ApplyPatch(base, models.StylePatch{ColorMap: []models.ColorStopInput{
		{Offset: 0.8, Color: "#000"}, {Offset: 0.2, Color: "#fff"},
	}})
	assert.ErrorIs(t, err, ErrBadOffset)

	zero := 0.0
	_, err = ApplyPatch(base, models.StylePatch{DisplayDuration: &zero})
	assert.Error(t, err)

	neg := -1
	_, err = ApplyPatch(base, models.StylePatch{LegendTicks: &neg})
	assert.Error(t, err)
}

func TestStyleRoundTrip(t *testing.T) {
	style := models.DefaultStyle()
	style.DisplayDuration = ptr(30)
	style.FeatureInfoFields = map[string]string{"name": "Site"}

	data, err := EncodeStyle(style)
	require.NoError(t, err)

	got, err := DecodeStyle(data)
	require.NoError(t, err)
	assert.Equal(t, style, got)
}

func TestDecodeStyleDefaults(t *testing.T) {
	got, err := DecodeStyle("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStyle(), got)

	got, err = DecodeStyle(`{"scale":4}`)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Scale)
	assert.True(t, got.ClampDisplayValue)
	assert.Len(t, got.ColorMap, len(models.DefaultColorMap))

	_, err = DecodeStyle(`{`)
	assert.Error(t, err)
}

func TestApplyPatchAutoDuration(t *testing.T) {
	base := models.DefaultStyle()
	base.DisplayDuration = ptr(5)

	got, err := ApplyPatch(base, models.StylePatch{})
	require.NoError(t, err)
	require.NotNil(t, got.DisplayDuration, "an absent duration keeps the explicit one")
	assert.Equal(t, 5.0, *got.DisplayDuration)

	got, err = ApplyPatch(base, models.StylePatch{AutoDuration: true})
	require.NoError(t, err)
	assert.Nil(t, got.DisplayDuration)

	_, err = ApplyPatch(base, models.StylePatch{AutoDuration: true, DisplayDuration: ptr(2)})
	assert.Error(t, err)
}
