package viz

import (
	"math"

	"github.com/jengzang/tableviz/internal/models"
)

// Domain is the value range mapped onto [0,1]
type Domain struct {
	Min float64
	Max float64
}

// Single reports whether the domain collapses to one value
func (d Domain) Single() bool { return d.Min == d.Max }

// Normalize maps value to its position in [min,max]. ok is false when the
// value is no data. A degenerate domain (min == max) maps everything to 0.
// Without clamping the result may fall outside [0,1].
func Normalize(value, min, max float64, noData, clamp bool) (n float64, ok bool) {
	if noData {
		return 0, false
	}
	if max != min {
		n = (value - min) / (max - min)
	}
	if clamp {
		n = math.Max(0.0, math.Min(1.0, n))
	}
	return n, true
}

// Normalize maps value into the domain
func (d Domain) Normalize(value float64, noData, clamp bool) (float64, bool) {
	return Normalize(value, d.Min, d.Max, noData, clamp)
}

// DisplayDomain returns the normalization domain: the style bounds when set,
// the observed data bounds otherwise.
func DisplayDomain(dataMin, dataMax float64, style models.StyleConfig) Domain {
	d := Domain{Min: dataMin, Max: dataMax}
	if style.MinDisplayValue != nil {
		d.Min = *style.MinDisplayValue
	}
	if style.MaxDisplayValue != nil {
		d.Max = *style.MaxDisplayValue
	}
	return d
}

// LegendDomain returns the bounds printed on the legend. Uniform data always
// yields a single-value legend, whatever the style bounds say.
func LegendDomain(dataMin, dataMax float64, style models.StyleConfig) Domain {
	if dataMin == dataMax {
		return Domain{Min: dataMin, Max: dataMax}
	}
	return DisplayDomain(dataMin, dataMax, style)
}
