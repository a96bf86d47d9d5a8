package viz

import (
	"fmt"
	"math"
	"time"

	"github.com/jengzang/tableviz/internal/models"
)

// Describer renders the description of one source row
type Describer interface {
	Describe(columns []string, row map[string]string) string
}

// DescriberFunc adapts a function to the Describer interface
type DescriberFunc func(columns []string, row map[string]string) string

// Describe calls f
func (f DescriberFunc) Describe(columns []string, row map[string]string) string {
	return f(columns, row)
}

// RecordOptions carries the per-dataset inputs of BuildRecords
type RecordOptions struct {
	Domain  Domain
	HasTime bool
	// Duration is the display duration in minutes
	Duration float64
	// AutoDuration selects slice-derived intervals instead of [time, time+Duration]
	AutoDuration bool
	IDPrefix     string
	Columns      []string
	Row          func(i int) map[string]string
	Describer    Describer
}

// BuildRecords turns points into display records, one per point, in input order
func BuildRecords(points []models.DataPoint, style models.StyleConfig, ramp *Ramp, index *TimeSliceIndex, opts RecordOptions) []models.DisplayRecord {
	records := make([]models.DisplayRecord, 0, len(points))
	for _, p := range points {
		n, ok := opts.Domain.Normalize(p.Value, p.NoData, style.ClampDisplayValue)

		rec := models.DisplayRecord{
			ID:       fmt.Sprintf("%s%d", opts.IDPrefix, p.Row),
			Name:     DefaultName,
			Position: p.Position,
			Color:    ramp.Sample(n, ok),
			Scale:    ScaleFor(style, n, ok),
			Row:      p.Row,
		}
		if opts.HasTime && p.Time != nil {
			rec.Visibility = visibility(*p.Time, index, opts)
		}
		if opts.Row != nil {
			if row := opts.Row(p.Row); row != nil {
				rec.Name = ChooseName(opts.Columns, row)
				if opts.Describer != nil {
					rec.Description = opts.Describer.Describe(opts.Columns, row)
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

func visibility(t time.Time, index *TimeSliceIndex, opts RecordOptions) *models.DisplayInterval {
	if !opts.AutoDuration {
		return &models.DisplayInterval{Start: t, Finish: t.Add(Minutes(opts.Duration))}
	}
	if index == nil {
		return nil
	}
	iv, err := index.EnclosingInterval(t, opts.Duration)
	if err != nil {
		return nil
	}
	return &iv
}

// ScaleFor returns the display scale of a normalized value. No-data and NaN
// values keep the base scale.
func ScaleFor(style models.StyleConfig, n float64, ok bool) float64 {
	scale := style.Scale
	if !ok || math.IsNaN(n) {
		return scale
	}
	if style.ScaleByValue {
		scale *= 1.0*n + 0.5
	}
	return scale
}

// ResolveDuration returns the display duration in minutes and whether it was
// derived from the time span rather than set by the style
func ResolveDuration(style models.StyleConfig, timeMin, timeMax time.Time) (float64, bool) {
	if style.DisplayDuration != nil {
		return *style.DisplayDuration, false
	}
	return AutoDuration(timeMin, timeMax), true
}
