package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/tableviz/internal/models"
	"github.com/jengzang/tableviz/internal/spatial"
	"github.com/jengzang/tableviz/internal/stats"
)

// DefaultNoDataValue is the sentinel used when none is configured
const DefaultNoDataValue = -9999.0

// ErrEmptyTable is returned when the text has no header row
var ErrEmptyTable = errors.New("table has no header row")

var (
	latNames    = []string{"lat", "latitude", "y"}
	lonNames    = []string{"lon", "lng", "long", "longitude", "x"}
	heightNames = []string{"height", "alt", "altitude", "elevation", "z"}
	timeNames   = []string{"time", "date", "datetime", "timestamp"}

	timeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
	}
)

// Option configures table parsing
type Option func(*Table)

// WithNoDataValue sets the no-data sentinel
func WithNoDataValue(v float64) Option {
	return func(t *Table) { t.noDataValue = v }
}

// Table is a parsed CSV dataset with one active data variable
type Table struct {
	columns []string
	rows    [][]string

	latCol, lonCol, heightCol, timeCol int

	times     []*time.Time // per row, nil when missing or unparsable
	hasTime   bool
	timeMin   time.Time
	timeMax   time.Time
	variables []string

	noDataValue  float64
	dataVariable string
	dataCol      int
	dataMin      float64
	dataMax      float64
	points       []models.DataPoint
}

// Parse reads CSV text into a Table. The first record is the header.
func Parse(text string, opts ...Option) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{
		noDataValue: DefaultNoDataValue,
		dataCol:     -1,
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, h := range header {
		t.columns = append(t.columns, strings.TrimSpace(h))
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.rows)+1, err)
		}
		row := make([]string, len(t.columns))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		t.rows = append(t.rows, row)
	}

	t.latCol = findColumn(t.columns, latNames)
	t.lonCol = findColumn(t.columns, lonNames)
	t.heightCol = findColumn(t.columns, heightNames)
	t.timeCol = findColumn(t.columns, timeNames)

	t.parseTimes()
	t.detectVariables()
	t.SetDataVariable("")
	return t, nil
}

func findColumn(columns []string, names []string) int {
	for _, name := range names {
		for i, c := range columns {
			if strings.EqualFold(c, name) {
				return i
			}
		}
	}
	return -1
}

// parseTimes records every row time. The time range only covers rows that
// become points, so a row without a valid location cannot widen it.
func (t *Table) parseTimes() {
	t.times = make([]*time.Time, len(t.rows))
	if t.timeCol < 0 {
		return
	}
	for i, row := range t.rows {
		ts, ok := ParseTime(row[t.timeCol])
		if !ok {
			continue
		}
		t.times[i] = &ts
		if t.HasLocationData() {
			if _, _, ok := t.location(row); !ok {
				continue
			}
		}
		if !t.hasTime || ts.Before(t.timeMin) {
			t.timeMin = ts
		}
		if !t.hasTime || ts.After(t.timeMax) {
			t.timeMax = ts
		}
		t.hasTime = true
	}
}

// ParseTime parses a time cell using the supported layouts or unix seconds
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

func (t *Table) isCoordinateColumn(i int) bool {
	return i == t.latCol || i == t.lonCol || i == t.heightCol || i == t.timeCol
}

func (t *Table) detectVariables() {
	for i, c := range t.columns {
		if t.isCoordinateColumn(i) {
			continue
		}
		for _, row := range t.rows {
			if _, err := strconv.ParseFloat(row[i], 64); err == nil {
				t.variables = append(t.variables, c)
				break
			}
		}
	}
}

// Columns returns the header names
func (t *Table) Columns() []string { return t.columns }

// RowCount returns the number of data rows
func (t *Table) RowCount() int { return len(t.rows) }

// DataVariableList returns the numeric, non-coordinate columns
func (t *Table) DataVariableList() []string { return t.variables }

// DataVariable returns the active variable, empty when there is none
func (t *Table) DataVariable() string { return t.dataVariable }

// HasLocationData reports whether the table has latitude and longitude columns
func (t *Table) HasLocationData() bool { return t.latCol >= 0 && t.lonCol >= 0 }

// HasTimeData reports whether at least one row carries a parsable time
func (t *Table) HasTimeData() bool { return t.hasTime }

// TimeMin returns the earliest row time
func (t *Table) TimeMin() time.Time { return t.timeMin }

// TimeMax returns the latest row time
func (t *Table) TimeMax() time.Time { return t.timeMax }

// DataMin returns the smallest valid value of the active variable
func (t *Table) DataMin() float64 { return t.dataMin }

// DataMax returns the largest valid value of the active variable
func (t *Table) DataMax() float64 { return t.dataMax }

// IsNoData reports whether v is the no-data sentinel or NaN
func (t *Table) IsNoData(v float64) bool {
	return math.IsNaN(v) || v == t.noDataValue
}

// SetDataVariable selects the active variable. An unknown or empty name
// selects the first variable; a table without variables has none.
func (t *Table) SetDataVariable(name string) {
	t.dataCol = -1
	t.dataVariable = ""
	for _, v := range t.variables {
		if v == name {
			t.dataVariable = name
			break
		}
	}
	if t.dataVariable == "" && len(t.variables) > 0 {
		t.dataVariable = t.variables[0]
	}
	if t.dataVariable != "" {
		t.dataCol = findColumn(t.columns, []string{t.dataVariable})
	}
	t.buildPoints()
}

// location returns the coordinates of row, ok is false when they are
// missing or out of range
func (t *Table) location(row []string) (lat, lon float64, ok bool) {
	lat, errLat := strconv.ParseFloat(row[t.latCol], 64)
	lon, errLon := strconv.ParseFloat(row[t.lonCol], 64)
	if errLat != nil || errLon != nil || !spatial.ValidPosition(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func (t *Table) cellValue(row []string) (float64, bool) {
	if t.dataCol < 0 {
		return 0, true
	}
	v, err := strconv.ParseFloat(row[t.dataCol], 64)
	if err != nil || t.IsNoData(v) {
		return 0, true
	}
	return v, false
}

func (t *Table) buildPoints() {
	t.points = nil
	t.dataMin, t.dataMax = 0, 0
	if !t.HasLocationData() {
		return
	}

	var values []float64
	for i, row := range t.rows {
		lat, lon, ok := t.location(row)
		if !ok {
			continue
		}
		if t.hasTime && t.times[i] == nil {
			continue
		}

		var height float64
		if t.heightCol >= 0 {
			height, _ = strconv.ParseFloat(row[t.heightCol], 64)
		}

		value, noData := t.cellValue(row)
		if !noData {
			values = append(values, value)
		}

		t.points = append(t.points, models.DataPoint{
			Position: models.Position{Lon: lon, Lat: lat, Height: height},
			Value:    value,
			NoData:   noData,
			Time:     t.times[i],
			Row:      i,
		})
	}

	if min, max, ok := stats.MinMax(values); ok {
		t.dataMin, t.dataMax = min, max
	}
}

// PointList returns one point per row with a valid location (and time, when
// the table is time-varying), in row order
func (t *Table) PointList() []models.DataPoint { return t.points }

// Values returns the valid values of the active variable
func (t *Table) Values() []float64 {
	values := make([]float64, 0, len(t.points))
	for _, p := range t.points {
		if !p.NoData {
			values = append(values, p.Value)
		}
	}
	return values
}

// Row returns the properties of row i keyed by column name
func (t *Table) Row(i int) map[string]string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	props := make(map[string]string, len(t.columns))
	for c, name := range t.columns {
		props[name] = t.rows[i][c]
	}
	return props
}
