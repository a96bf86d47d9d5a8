package viz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/tableviz/internal/dataset"
	"github.com/jengzang/tableviz/internal/models"
)

const sitesCSV = `name,lat,lon,time,temp,rain
Alpha,-33.9,151.2,2020-01-01T00:00:00Z,10,1
Beta,-34.0,151.0,2020-01-01T01:00:00Z,-9999,2
Gamma,-34.1,150.9,2020-01-01T02:00:00Z,30,
Delta,-34.2,150.8,2020-01-01T01:00:00Z,20,4
`

func loadedSource(t *testing.T, opts ...SourceOption) *TableSource {
	t.Helper()
	s := NewTableSource(opts...)
	require.NoError(t, s.LoadText(sitesCSV))
	return s
}

func TestTableSourceAutoDuration(t *testing.T) {
	s := loadedSource(t)

	d, auto := s.Duration()
	assert.True(t, auto)
	assert.InDelta(t, 1.2, d, 1e-9)
	assert.Nil(t, s.DisplayStyle().DisplayDuration, "automatic duration is not written into the style")
	assert.Equal(t, []time.Time{t1, t2, t3}, s.TimeSlices())
}

func TestTableSourceRecords(t *testing.T) {
	s := loadedSource(t, WithIDPrefix("sites-"))

	recs := s.Records()
	require.Len(t, recs, 4)
	assert.Equal(t, "sites-0", recs[0].ID)
	assert.Equal(t, "Alpha", recs[0].Name)
	assert.Contains(t, recs[0].Description, "<td>Alpha</td>")

	assert.Equal(t, models.DisplayInterval{Start: t1, Finish: t2.Add(-time.Second)}, *recs[0].Visibility)
	assert.Equal(t, models.DisplayInterval{Start: t2, Finish: t3.Add(-time.Second)}, *recs[3].Visibility)

	assert.Equal(t, DefaultNoDataColor, recs[1].Color, "Beta has no temp")
	assert.Equal(t, s.Ramp().Sample(0, true), recs[0].Color)
	assert.Equal(t, s.Ramp().Sample(1, true), recs[2].Color)
}

func TestTableSourceExplicitDuration(t *testing.T) {
	s := loadedSource(t)

	style := models.DefaultStyle()
	style.DisplayDuration = ptr(60)
	require.NoError(t, s.SetDisplayStyle(style))

	d, auto := s.Duration()
	assert.False(t, auto)
	assert.Equal(t, 60.0, d)

	recs := s.Records()
	assert.Equal(t, models.DisplayInterval{Start: t1, Finish: t2}, *recs[0].Visibility)
	assert.Equal(t, []int{0, 1, 3}, s.PointsAt(t2))
}

func TestTableSourcePointsAtAuto(t *testing.T) {
	s := loadedSource(t)

	assert.Equal(t, []int{0}, s.PointsAt(t1.Add(30*time.Minute)))
	assert.Equal(t, []int{1, 3}, s.PointsAt(t2))
	assert.Equal(t, []int{2}, s.PointsAt(t3))
	assert.Empty(t, s.PointsAt(t3.Add(time.Hour)))
}

func TestTableSourceWithoutTime(t *testing.T) {
	s := NewTableSource()
	require.NoError(t, s.LoadText("lat,lon,v\n1,1,5\n2,2,6\n"))

	_, auto := s.Duration()
	assert.False(t, auto)
	assert.Equal(t, []int{0, 1}, s.PointsAt(t1))
	for _, r := range s.Records() {
		assert.Nil(t, r.Visibility)
	}

	_, err := s.TimeSlice(t1)
	assert.ErrorIs(t, err, ErrNoTimeData)
	assert.Nil(t, s.TimeSlices())
}

func TestTableSourceTimeSlice(t *testing.T) {
	s := loadedSource(t)

	iv, err := s.TimeSlice(t2.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.DisplayInterval{Start: t2, Finish: t3.Add(-time.Second)}, iv)
}

func TestTableSourceLoadFailureKeepsDataset(t *testing.T) {
	s := loadedSource(t)
	before := s.Dataset()

	err := s.LoadText("")
	assert.ErrorIs(t, err, dataset.ErrEmptyTable)
	assert.Same(t, before, s.Dataset())
	assert.Len(t, s.Records(), 4)
}

func TestTableSourceSetDataVariable(t *testing.T) {
	s := loadedSource(t)
	assert.Equal(t, Domain{Min: 10, Max: 30}, s.Domain())

	s.SetDataVariable("rain")
	assert.Equal(t, "rain", s.Dataset().DataVariable())
	assert.Equal(t, Domain{Min: 1, Max: 4}, s.Domain())
	assert.Equal(t, "rain", s.DisplayStyle().DataVariable)
}

func TestTableSourceUniformLegend(t *testing.T) {
	s := NewTableSource()
	require.NoError(t, s.LoadText("lat,lon,v\n1,1,10\n2,2,10\n3,3,10\n"))

	style := models.DefaultStyle()
	style.MinDisplayValue = ptr(0)
	require.NoError(t, s.SetDisplayStyle(style))

	d := s.LegendDomain()
	assert.Equal(t, 10.0, d.Min)
	assert.Equal(t, 10.0, d.Max)

	r, surface := recordingRenderer()
	_, err := s.Legend(r)
	require.NoError(t, err)
	assert.Equal(t, LegendHeightSingle, surface.height)
}

func TestTableSourceFixedColor(t *testing.T) {
	s := loadedSource(t)

	style := models.DefaultStyle()
	style.ColorMap = style.ColorMap[:1]
	require.NoError(t, s.SetDisplayStyle(style))
	assert.False(t, s.ColorByValue())

	png, err := s.Legend(NewLegendRenderer(""))
	assert.NoError(t, err)
	assert.Nil(t, png)

	for _, r := range s.Records() {
		assert.Equal(t, models.DefaultColorMap[0].Color, r.Color)
	}
}

func TestTableSourceRejectsBadStyle(t *testing.T) {
	s := loadedSource(t)

	style := models.DefaultStyle()
	style.ColorMap = nil
	err := s.SetDisplayStyle(style)
	assert.ErrorIs(t, err, ErrEmptyColorMap)
	assert.True(t, s.ColorByValue())
	assert.Len(t, s.DisplayStyle().ColorMap, len(models.DefaultColorMap))
}

func TestTableSourceTemplateDescriptionIsEscaped(t *testing.T) {
	s := NewTableSource()
	style := models.DefaultStyle()
	style.FeatureInfoTemplate = "<b>{{name}}</b>"
	require.NoError(t, s.SetDisplayStyle(style))
	require.NoError(t, s.LoadText("name,lat,lon,v\n<img src=x onerror=alert(1)>,1,2,3\n"))

	recs := s.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "<b>&lt;img src=x onerror=alert(1)&gt;</b>", recs[0].Description)
}
