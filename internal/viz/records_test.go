package viz

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/tableviz/internal/models"
)

func valuePoints(values ...float64) []models.DataPoint {
	points := make([]models.DataPoint, len(values))
	for i, v := range values {
		points[i] = models.DataPoint{
			Position: models.Position{Lon: float64(i), Lat: float64(i)},
			Value:    v,
			Row:      i,
		}
	}
	return points
}

func TestBuildRecordsScale(t *testing.T) {
	style := models.DefaultStyle()
	ramp := defaultRamp(t)
	points := valuePoints(0, 100)
	opts := RecordOptions{Domain: Domain{Min: 0, Max: 100}}

	recs := BuildRecords(points, style, ramp, nil, opts)
	require.Len(t, recs, 2)
	assert.Equal(t, 1.0, recs[0].Scale)
	assert.Equal(t, 1.0, recs[1].Scale)

	style.ScaleByValue = true
	recs = BuildRecords(points, style, ramp, nil, opts)
	assert.Equal(t, 0.5, recs[0].Scale)
	assert.Equal(t, 1.5, recs[1].Scale)

	style.Scale = 2
	recs = BuildRecords(points, style, ramp, nil, opts)
	assert.Equal(t, 1.0, recs[0].Scale)
	assert.Equal(t, 3.0, recs[1].Scale)
}

func TestBuildRecordsColors(t *testing.T) {
	style := models.DefaultStyle()
	ramp := defaultRamp(t)

	recs := BuildRecords(valuePoints(0, 50, 100), style, ramp, nil, RecordOptions{Domain: Domain{Min: 0, Max: 100}})
	require.Len(t, recs, 3)
	assert.Equal(t, ramp.Sample(0, true), recs[0].Color)
	assert.Equal(t, ramp.Sample(0.5, true), recs[1].Color)
	assert.Equal(t, ramp.Sample(1, true), recs[2].Color)
	for i, r := range recs {
		assert.Equal(t, i, r.Row, "input order is kept")
		assert.Nil(t, r.Visibility, "no time data means always visible")
		assert.Equal(t, DefaultName, r.Name)
	}
}

func TestBuildRecordsNoData(t *testing.T) {
	style := models.DefaultStyle()
	style.ScaleByValue = true
	style.Scale = 3
	ramp := defaultRamp(t)

	points := valuePoints(0, 100, 0)
	points[2].NoData = true

	recs := BuildRecords(points, style, ramp, nil, RecordOptions{Domain: Domain{Min: 0, Max: 100}})
	require.Len(t, recs, 3)
	assert.Equal(t, DefaultNoDataColor, recs[2].Color)
	assert.Equal(t, 3.0, recs[2].Scale)
}

func TestBuildRecordsExplicitDuration(t *testing.T) {
	points := pointsAt(t1, t2)
	recs := BuildRecords(points, models.DefaultStyle(), defaultRamp(t), nil, RecordOptions{
		HasTime:  true,
		Duration: 30,
	})
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0].Visibility)
	assert.Equal(t, models.DisplayInterval{Start: t1, Finish: t1.Add(30 * time.Minute)}, *recs[0].Visibility)
	assert.Equal(t, models.DisplayInterval{Start: t2, Finish: t2.Add(30 * time.Minute)}, *recs[1].Visibility)
}

func TestBuildRecordsAutoDuration(t *testing.T) {
	points := pointsAt(t1, t3, t2)
	index := NewTimeSliceIndex(func() []models.DataPoint { return points })
	recs := BuildRecords(points, models.DefaultStyle(), defaultRamp(t), index, RecordOptions{
		HasTime:      true,
		Duration:     AutoDuration(t1, t3),
		AutoDuration: true,
	})
	require.Len(t, recs, 3)
	assert.Equal(t, models.DisplayInterval{Start: t1, Finish: t2.Add(-time.Second)}, *recs[0].Visibility)
	assert.Equal(t, t3, recs[1].Visibility.Start)
	assert.Equal(t, t3.Add(72*time.Second), recs[1].Visibility.Finish)
	assert.Equal(t, models.DisplayInterval{Start: t2, Finish: t3.Add(-time.Second)}, *recs[2].Visibility)
}

func TestBuildRecordsNamesAndDescriptions(t *testing.T) {
	columns := []string{"Station Name", "v"}
	rows := []map[string]string{
		{"Station Name": "Alpha", "v": "1"},
		{"Station Name": "", "v": "2"},
	}
	recs := BuildRecords(valuePoints(1, 2), models.DefaultStyle(), defaultRamp(t), nil, RecordOptions{
		Domain:   Domain{Min: 1, Max: 2},
		IDPrefix: "ds-",
		Columns:  columns,
		Row:      func(i int) map[string]string { return rows[i] },
		Describer: DescriberFunc(func(_ []string, row map[string]string) string {
			return "v=" + row["v"]
		}),
	})
	require.Len(t, recs, 2)
	assert.Equal(t, "ds-0", recs[0].ID)
	assert.Equal(t, "Alpha", recs[0].Name)
	assert.Equal(t, "v=1", recs[0].Description)
	assert.Equal(t, DefaultName, recs[1].Name)
	assert.Equal(t, "ds-"+strconv.Itoa(1), recs[1].ID)
}

func TestResolveDuration(t *testing.T) {
	style := models.DefaultStyle()
	d, auto := ResolveDuration(style, t1, t3)
	assert.True(t, auto)
	assert.InDelta(t, 1.2, d, 1e-9)

	style.DisplayDuration = ptr(45)
	d, auto = ResolveDuration(style, t1, t3)
	assert.False(t, auto)
	assert.Equal(t, 45.0, d)
}
