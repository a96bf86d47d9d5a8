package models

import "image/color"

// ColorStop is one entry of a color ramp. Offset is in [0,1].
type ColorStop struct {
	Offset float64     `json:"offset"`
	Color  color.NRGBA `json:"-"`
	CSS    string      `json:"color"` // Original color string, e.g. "rgba(32,0,200,1.0)"
}

// StyleConfig holds the display style of a table dataset.
// Unset fields take the values of DefaultStyle.
type StyleConfig struct {
	Scale             float64           `json:"scale"`
	ScaleByValue      bool              `json:"scaleByValue"`
	MinDisplayValue   *float64          `json:"minDisplayValue,omitempty"`
	MaxDisplayValue   *float64          `json:"maxDisplayValue,omitempty"`
	ClampDisplayValue bool              `json:"clampDisplayValue"`
	LegendTicks       int               `json:"legendTicks"`
	ColorMap          []ColorStop       `json:"colorMap"`
	DisplayDuration   *float64          `json:"displayDuration,omitempty"` // Minutes; nil means automatic
	ImageURL          string            `json:"imageUrl,omitempty"`
	DataVariable      string            `json:"dataVariable,omitempty"`
	FeatureInfoFields map[string]string `json:"featureInfoFields,omitempty"`
	// {{column}} template for record descriptions; empty uses an HTML table
	FeatureInfoTemplate string `json:"featureInfoTemplate,omitempty"`
	// Stored with the style for region mapping, not used by the point pipeline
	RegionVariable string `json:"regionVariable,omitempty"`
	RegionType     string `json:"regionType,omitempty"`
}

// DefaultColorMap is the blue-cyan-green-yellow-red ramp used when no color map is given
var DefaultColorMap = []ColorStop{
	{Offset: 0.0, Color: color.NRGBA{32, 0, 200, 255}, CSS: "rgba(32,0,200,1.0)"},
	{Offset: 0.25, Color: color.NRGBA{0, 200, 200, 255}, CSS: "rgba(0,200,200,1.0)"},
	{Offset: 0.5, Color: color.NRGBA{0, 200, 0, 255}, CSS: "rgba(0,200,0,1.0)"},
	{Offset: 0.75, Color: color.NRGBA{200, 200, 0, 255}, CSS: "rgba(200,200,0,1.0)"},
	{Offset: 1.0, Color: color.NRGBA{200, 0, 0, 255}, CSS: "rgba(200,0,0,1.0)"},
}

// DefaultStyle returns the style used for a freshly loaded dataset
func DefaultStyle() StyleConfig {
	stops := make([]ColorStop, len(DefaultColorMap))
	copy(stops, DefaultColorMap)
	return StyleConfig{
		Scale:             1.0,
		ScaleByValue:      false,
		ClampDisplayValue: true,
		LegendTicks:       0,
		ColorMap:          stops,
	}
}

// StylePatch is a partial style update. Nil fields keep the current value,
// except MinDisplayValue and MaxDisplayValue which are always replaced.
type StylePatch struct {
	Scale             *float64          `json:"scale,omitempty"`
	ScaleByValue      *bool             `json:"scaleByValue,omitempty"`
	MinDisplayValue   *float64          `json:"minDisplayValue,omitempty"`
	MaxDisplayValue   *float64          `json:"maxDisplayValue,omitempty"`
	ClampDisplayValue *bool             `json:"clampDisplayValue,omitempty"`
	LegendTicks       *int              `json:"legendTicks,omitempty"`
	ColorMap          []ColorStopInput  `json:"colorMap,omitempty"`
	DisplayDuration   *float64          `json:"displayDuration,omitempty"`
	ImageURL          *string           `json:"imageUrl,omitempty"`
	DataVariable      string            `json:"dataVariable,omitempty"`
	FeatureInfoFields map[string]string `json:"featureInfoFields,omitempty"`
	RegionVariable    string            `json:"regionVariable,omitempty"`
	RegionType        string            `json:"regionType,omitempty"`

	FeatureInfoTemplate *string `json:"featureInfoTemplate,omitempty"`
	// AutoDuration clears DisplayDuration so the duration is derived from
	// the dataset time span again
	AutoDuration bool `json:"autoDuration,omitempty"`
}

// ColorStopInput is the wire form of a color stop
type ColorStopInput struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}
