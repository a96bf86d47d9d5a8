package viz

import (
	"encoding/json"
	"fmt"

	"github.com/jengzang/tableviz/internal/models"
)

// ApplyPatch merges patch into style. Nil patch fields keep the current
// value; the display bounds, region fields, feature info fields and data
// variable are always replaced. AutoDuration resets the display duration.
func ApplyPatch(style models.StyleConfig, patch models.StylePatch) (models.StyleConfig, error) {
	if patch.Scale != nil {
		style.Scale = *patch.Scale
	}
	if patch.ScaleByValue != nil {
		style.ScaleByValue = *patch.ScaleByValue
	}
	if patch.ClampDisplayValue != nil {
		style.ClampDisplayValue = *patch.ClampDisplayValue
	}
	if patch.LegendTicks != nil {
		if *patch.LegendTicks < 0 {
			return style, fmt.Errorf("legendTicks must not be negative, got %d", *patch.LegendTicks)
		}
		style.LegendTicks = *patch.LegendTicks
	}
	if patch.AutoDuration && patch.DisplayDuration != nil {
		return style, fmt.Errorf("autoDuration and displayDuration are mutually exclusive")
	}
	if patch.AutoDuration {
		style.DisplayDuration = nil
	}
	if patch.DisplayDuration != nil {
		if *patch.DisplayDuration <= 0 {
			return style, fmt.Errorf("displayDuration must be positive, got %v", *patch.DisplayDuration)
		}
		d := *patch.DisplayDuration
		style.DisplayDuration = &d
	}
	if patch.FeatureInfoTemplate != nil {
		style.FeatureInfoTemplate = *patch.FeatureInfoTemplate
	}
	if patch.ImageURL != nil {
		style.ImageURL = *patch.ImageURL
	}
	if patch.ColorMap != nil {
		stops, err := ParseColorStops(patch.ColorMap)
		if err != nil {
			return style, fmt.Errorf("invalid color map: %w", err)
		}
		if _, err := BuildRamp(stops); err != nil {
			return style, fmt.Errorf("invalid color map: %w", err)
		}
		style.ColorMap = stops
	}

	style.MinDisplayValue = copyFloat(patch.MinDisplayValue)
	style.MaxDisplayValue = copyFloat(patch.MaxDisplayValue)
	style.RegionVariable = patch.RegionVariable
	style.RegionType = patch.RegionType
	style.FeatureInfoFields = patch.FeatureInfoFields
	style.DataVariable = patch.DataVariable
	return style, nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// EncodeStyle serializes a style for storage
func EncodeStyle(style models.StyleConfig) (string, error) {
	b, err := json.Marshal(style)
	if err != nil {
		return "", fmt.Errorf("failed to encode style: %w", err)
	}
	return string(b), nil
}

// DecodeStyle restores a stored style. Missing fields take the defaults and
// the color stops are re-parsed from their CSS strings.
func DecodeStyle(data string) (models.StyleConfig, error) {
	style := models.DefaultStyle()
	if data == "" {
		return style, nil
	}
	if err := json.Unmarshal([]byte(data), &style); err != nil {
		return style, fmt.Errorf("failed to decode style: %w", err)
	}
	for i, s := range style.ColorMap {
		c, err := ParseColor(s.CSS)
		if err != nil {
			return style, fmt.Errorf("failed to decode style stop %d: %w", i, err)
		}
		style.ColorMap[i].Color = c
	}
	return style, nil
}
