package viz

import (
	"fmt"
	"time"

	"github.com/jengzang/tableviz/internal/dataset"
	"github.com/jengzang/tableviz/internal/models"
	"github.com/jengzang/tableviz/internal/template"
)

// Dataset is the tabular data a TableSource displays
type Dataset interface {
	PointList() []models.DataPoint
	Columns() []string
	Row(i int) map[string]string
	RowCount() int
	Values() []float64
	DataVariable() string
	DataVariableList() []string
	SetDataVariable(name string)
	DataMin() float64
	DataMax() float64
	HasTimeData() bool
	HasLocationData() bool
	TimeMin() time.Time
	TimeMax() time.Time
}

// SourceOption configures a TableSource
type SourceOption func(*TableSource)

// WithDescriber replaces the default HTML table describer
func WithDescriber(d Describer) SourceOption {
	return func(s *TableSource) { s.describer = d }
}

// WithParseOptions passes options to the CSV parser used by LoadText
func WithParseOptions(opts ...dataset.Option) SourceOption {
	return func(s *TableSource) { s.parseOpts = append(s.parseOpts, opts...) }
}

// WithIDPrefix sets the prefix of record ids
func WithIDPrefix(prefix string) SourceOption {
	return func(s *TableSource) { s.idPrefix = prefix }
}

// TableSource owns one dataset and its display style and derives display
// records and legends from them. It is not safe for concurrent use.
type TableSource struct {
	ds        Dataset
	style     models.StyleConfig
	ramp      *Ramp
	index     *TimeSliceIndex
	duration  float64
	auto      bool
	describer Describer
	parseOpts []dataset.Option
	idPrefix  string
}

// NewTableSource returns an empty source with the default style
func NewTableSource(opts ...SourceOption) *TableSource {
	s := &TableSource{style: models.DefaultStyle()}
	s.ramp, _ = BuildRamp(s.style.ColorMap)
	s.index = NewTimeSliceIndex(func() []models.DataPoint {
		if s.ds == nil {
			return nil
		}
		return s.ds.PointList()
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadText parses CSV text and makes it the active dataset. On error the
// previous dataset stays active.
func (s *TableSource) LoadText(text string) error {
	t, err := dataset.Parse(text, s.parseOpts...)
	if err != nil {
		return fmt.Errorf("failed to parse table: %w", err)
	}
	s.SetDataset(t)
	return nil
}

// SetDataset replaces the active dataset
func (s *TableSource) SetDataset(ds Dataset) {
	s.ds = ds
	s.resolveDuration()
	s.SetDataVariable(s.style.DataVariable)
}

// Dataset returns the active dataset, nil before the first load
func (s *TableSource) Dataset() Dataset { return s.ds }

func (s *TableSource) resolveDuration() {
	s.duration, s.auto = 0, false
	if s.style.DisplayDuration != nil {
		s.duration = *s.style.DisplayDuration
		return
	}
	if s.ds != nil && s.ds.HasTimeData() {
		s.duration, s.auto = ResolveDuration(s.style, s.ds.TimeMin(), s.ds.TimeMax())
	}
}

// SetDisplayStyle replaces the display style. The color map is validated
// before anything changes.
func (s *TableSource) SetDisplayStyle(style models.StyleConfig) error {
	ramp, err := BuildRamp(style.ColorMap)
	if err != nil {
		return fmt.Errorf("invalid color map: %w", err)
	}
	s.style = style
	s.ramp = ramp
	s.resolveDuration()
	s.SetDataVariable(style.DataVariable)
	return nil
}

// DisplayStyle returns the configured style. An automatic duration stays
// unset here; see Duration.
func (s *TableSource) DisplayStyle() models.StyleConfig { return s.style }

// Duration returns the effective display duration in minutes and whether it
// was derived from the dataset time span
func (s *TableSource) Duration() (float64, bool) { return s.duration, s.auto }

// SetDataVariable selects the variable that drives color and scale
func (s *TableSource) SetDataVariable(name string) {
	s.style.DataVariable = name
	if s.ds != nil {
		s.ds.SetDataVariable(name)
	}
	s.index.Invalidate()
}

// ColorByValue is false when the color map has a single stop
func (s *TableSource) ColorByValue() bool { return s.ramp.ColorByValue() }

// Ramp returns the rasterized color map
func (s *TableSource) Ramp() *Ramp { return s.ramp }

// Domain returns the normalization domain of the active variable
func (s *TableSource) Domain() Domain {
	if s.ds == nil {
		return DisplayDomain(0, 0, s.style)
	}
	return DisplayDomain(s.ds.DataMin(), s.ds.DataMax(), s.style)
}

// LegendDomain returns the bounds printed on the legend
func (s *TableSource) LegendDomain() Domain {
	if s.ds == nil {
		return LegendDomain(0, 0, s.style)
	}
	return LegendDomain(s.ds.DataMin(), s.ds.DataMax(), s.style)
}

// Records returns one display record per located point
func (s *TableSource) Records() []models.DisplayRecord {
	if s.ds == nil || !s.ds.HasLocationData() {
		return nil
	}
	describer := s.describer
	if describer == nil {
		describer = s.defaultDescriber()
	}
	return BuildRecords(s.ds.PointList(), s.style, s.ramp, s.index, RecordOptions{
		Domain:       s.Domain(),
		HasTime:      s.ds.HasTimeData(),
		Duration:     s.duration,
		AutoDuration: s.auto,
		IDPrefix:     s.idPrefix,
		Columns:      s.ds.Columns(),
		Row:          s.ds.Row,
		Describer:    describer,
	})
}

func (s *TableSource) defaultDescriber() Describer {
	if s.style.FeatureInfoTemplate != "" {
		return template.Compile(s.style.FeatureInfoTemplate)
	}
	return TableDescriber{Fields: s.style.FeatureInfoFields}
}

// TimeSlice returns the slice interval enclosing t
func (s *TableSource) TimeSlice(t time.Time) (models.DisplayInterval, error) {
	if s.ds == nil || !s.ds.HasTimeData() {
		return models.DisplayInterval{}, ErrNoTimeData
	}
	return s.index.EnclosingInterval(t, s.duration)
}

// TimeSlices returns the distinct observation times
func (s *TableSource) TimeSlices() []time.Time {
	if s.ds == nil || !s.ds.HasTimeData() {
		return nil
	}
	return s.index.Slices()
}

// PointsAt returns the rows of the points visible at t. With an automatic
// duration the window is the slice enclosing t, otherwise [t-duration, t].
// Without time data every point is visible.
func (s *TableSource) PointsAt(t time.Time) []int {
	if s.ds == nil {
		return nil
	}

	var window *models.DisplayInterval
	if s.ds.HasTimeData() {
		if s.auto {
			iv, err := s.index.EnclosingInterval(t, s.duration)
			if err != nil {
				return nil
			}
			window = &iv
		} else {
			window = &models.DisplayInterval{Start: t.Add(-Minutes(s.duration)), Finish: t}
		}
	}

	rows := []int{}
	for _, p := range s.ds.PointList() {
		if window != nil && (p.Time == nil || !window.Contains(*p.Time)) {
			continue
		}
		rows = append(rows, p.Row)
	}
	return rows
}

// Legend renders the legend of the active variable. It returns nil, nil for
// fixed-color styles.
func (s *TableSource) Legend(r *LegendRenderer) ([]byte, error) {
	if s.ds == nil {
		return nil, nil
	}
	d := s.LegendDomain()
	return r.Render(s.ramp, d.Min, d.Max, s.style.LegendTicks, s.ds.DataVariable())
}
