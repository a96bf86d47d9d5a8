package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitesCSV = `name,lat,lon,time,temp,rain
Alpha,-33.9,151.2,2020-01-01T00:00:00Z,10,1
Beta,-34.0,151.0,2020-01-01T01:00:00Z,-9999,2
Gamma,-34.1,150.9,2020-01-01T02:00:00Z,30,
Delta,-34.2,150.8,2020-01-01T01:00:00Z,20,4
`

func TestParseDetectsColumns(t *testing.T) {
	tbl, err := Parse(sitesCSV)
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.RowCount())
	assert.True(t, tbl.HasLocationData())
	assert.True(t, tbl.HasTimeData())
	assert.Equal(t, []string{"temp", "rain"}, tbl.DataVariableList())
	assert.Equal(t, "temp", tbl.DataVariable())
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), tbl.TimeMin())
	assert.Equal(t, time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC), tbl.TimeMax())
}

func TestNoDataSentinelExcludedFromRange(t *testing.T) {
	tbl, err := Parse(sitesCSV)
	require.NoError(t, err)

	assert.Equal(t, 10.0, tbl.DataMin())
	assert.Equal(t, 30.0, tbl.DataMax())

	points := tbl.PointList()
	require.Len(t, points, 4)
	assert.True(t, points[1].NoData)
	assert.False(t, points[0].NoData)
	assert.Equal(t, []float64{10, 30, 20}, tbl.Values())
}

func TestSetDataVariable(t *testing.T) {
	tbl, err := Parse(sitesCSV)
	require.NoError(t, err)

	tbl.SetDataVariable("rain")
	assert.Equal(t, "rain", tbl.DataVariable())
	assert.Equal(t, 1.0, tbl.DataMin())
	assert.Equal(t, 4.0, tbl.DataMax())
	assert.True(t, tbl.PointList()[2].NoData, "empty cell is no data")

	tbl.SetDataVariable("unknown")
	assert.Equal(t, "temp", tbl.DataVariable())
}

func TestCustomNoDataValue(t *testing.T) {
	tbl, err := Parse("lat,lon,v\n1,1,0\n2,2,5\n", WithNoDataValue(0))
	require.NoError(t, err)

	assert.True(t, tbl.IsNoData(0))
	assert.Equal(t, 5.0, tbl.DataMin())
	assert.Equal(t, 5.0, tbl.DataMax())
}

func TestRowsWithoutLocationAreSkipped(t *testing.T) {
	tbl, err := Parse("lat,lon,v\n1,1,1\n,2,2\n95,2,3\n")
	require.NoError(t, err)

	points := tbl.PointList()
	require.Len(t, points, 1)
	assert.Equal(t, 0, points[0].Row)
}

func TestStaticTable(t *testing.T) {
	tbl, err := Parse("latitude,longitude,height,value\n1,2,30,7\n")
	require.NoError(t, err)

	assert.False(t, tbl.HasTimeData())
	points := tbl.PointList()
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Time)
	assert.Equal(t, 30.0, points[0].Position.Height)
}

func TestNoLocationData(t *testing.T) {
	tbl, err := Parse("a,b\n1,2\n")
	require.NoError(t, err)

	assert.False(t, tbl.HasLocationData())
	assert.Empty(t, tbl.PointList())
}

func TestRow(t *testing.T) {
	tbl, err := Parse(sitesCSV)
	require.NoError(t, err)

	row := tbl.Row(0)
	assert.Equal(t, "Alpha", row["name"])
	assert.Equal(t, "10", row["temp"])
	assert.Nil(t, tbl.Row(99))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2020-01-01T00:00:00Z", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2020-01-01 06:30:00", time.Date(2020, 1, 1, 6, 30, 0, 0, time.UTC), true},
		{"2020-03-04", time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"1577836800", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestTimeRangeIgnoresUnlocatedRows(t *testing.T) {
	tbl, err := Parse(`lat,lon,time,v
1,1,2020-01-01T01:00:00Z,1
,,2019-06-01T00:00:00Z,2
95,1,2021-01-01T00:00:00Z,3
2,2,2020-01-01T02:00:00Z,4
`)
	require.NoError(t, err)

	require.Len(t, tbl.PointList(), 2)
	assert.Equal(t, time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC), tbl.TimeMin())
	assert.Equal(t, time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC), tbl.TimeMax())
}
