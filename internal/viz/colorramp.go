package viz

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jengzang/tableviz/internal/models"
)

// RampSize is the number of entries in a rasterized ramp
const RampSize = 256

// DefaultNoDataColor is returned by Sample for points without data
var DefaultNoDataColor = color.NRGBA{0, 0, 0, 0}

var (
	ErrEmptyColorMap = errors.New("color map has no stops")
	ErrBadOffset     = errors.New("color stop offsets must be non-decreasing within [0,1]")
)

// Ramp is a color map rasterized into a lookup table
type Ramp struct {
	table       [RampSize]color.NRGBA
	stops       []models.ColorStop
	byValue     bool
	NoDataColor color.NRGBA
}

// BuildRamp rasterizes stops into a RampSize lookup table by linear
// interpolation between consecutive stops. A single stop builds a fixed-color
// ramp that ignores values.
func BuildRamp(stops []models.ColorStop) (*Ramp, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyColorMap
	}
	for i, s := range stops {
		if s.Offset < 0 || s.Offset > 1 || math.IsNaN(s.Offset) {
			return nil, fmt.Errorf("stop %d offset %v: %w", i, s.Offset, ErrBadOffset)
		}
		if i > 0 && s.Offset < stops[i-1].Offset {
			return nil, fmt.Errorf("stop %d offset %v: %w", i, s.Offset, ErrBadOffset)
		}
	}

	r := &Ramp{
		stops:       append([]models.ColorStop(nil), stops...),
		byValue:     len(stops) > 1,
		NoDataColor: DefaultNoDataColor,
	}
	for i := range r.table {
		r.table[i] = gradientAt(stops, float64(i)/float64(RampSize-1))
	}
	return r, nil
}

// gradientAt evaluates the piecewise-linear gradient at pos
func gradientAt(stops []models.ColorStop, pos float64) color.NRGBA {
	if pos <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 0; i < len(stops)-1; i++ {
		c1, c2 := stops[i], stops[i+1]
		if pos > c2.Offset {
			continue
		}
		span := c2.Offset - c1.Offset
		if span == 0 {
			return c2.Color
		}
		return lerp(c1.Color, c2.Color, (pos-c1.Offset)/span)
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r, g, bl := ca.BlendRgb(cb, t).Clamped().RGB255()
	alpha := float64(a.A) + t*(float64(b.A)-float64(a.A))
	return color.NRGBA{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// ColorByValue is false for single-stop ramps
func (r *Ramp) ColorByValue() bool { return r.byValue }

// Stops returns the stops the ramp was built from
func (r *Ramp) Stops() []models.ColorStop { return r.stops }

// At returns table entry i, clamped to the table bounds
func (r *Ramp) At(i int) color.NRGBA {
	if i < 0 {
		i = 0
	}
	if i > RampSize-1 {
		i = RampSize - 1
	}
	return r.table[i]
}

// Sample returns the color for a normalized value. Values outside [0,1]
// (possible when clamping is off) land on the ramp ends; ok == false
// returns NoDataColor.
func (r *Ramp) Sample(n float64, ok bool) color.NRGBA {
	if !r.byValue {
		return r.stops[0].Color
	}
	if !ok {
		return r.NoDataColor
	}
	if math.IsNaN(n) {
		return r.table[0]
	}
	return r.At(int(math.Floor(n * float64(RampSize-1))))
}

// ParseColor parses rgba(r,g,b,a), rgb(r,g,b) and #rgb/#rrggbb colors
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunctional(s[len("rgba("):len(s)-1], 4)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunctional(s[len("rgb("):len(s)-1], 3)
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", s)
}

func parseFunctional(body string, n int) (color.NRGBA, error) {
	parts := strings.Split(body, ",")
	if len(parts) != n {
		return color.NRGBA{}, fmt.Errorf("expected %d color components, got %d", n, len(parts))
	}

	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color component %q: %w", p, err)
		}
		if i == 3 {
			v *= 255 // alpha is given in [0,1]
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// ParseColorStops converts wire color stops into ramp stops
func ParseColorStops(in []models.ColorStopInput) ([]models.ColorStop, error) {
	stops := make([]models.ColorStop, 0, len(in))
	for i, s := range in {
		c, err := ParseColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
		stops = append(stops, models.ColorStop{Offset: s.Offset, Color: c, CSS: s.Color})
	}
	return stops, nil
}
