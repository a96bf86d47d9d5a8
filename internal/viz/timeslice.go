package viz

import (
	"errors"
	"sort"
	"time"

	"github.com/jengzang/tableviz/internal/models"
)

// ErrNoTimeData is returned by interval queries on a dataset without times
var ErrNoTimeData = errors.New("dataset has no time data")

// sliceShave keeps adjacent intervals from sharing their boundary instant
const sliceShave = time.Second

// TimeSliceIndex holds the sorted distinct observation times of a point set
type TimeSliceIndex struct {
	slices *Memo[[]time.Time]
}

// NewTimeSliceIndex builds an index over the points returned by source.
// The slices are computed on first use and kept until Invalidate.
func NewTimeSliceIndex(source func() []models.DataPoint) *TimeSliceIndex {
	return &TimeSliceIndex{
		slices: NewMemo(func() []time.Time { return DistinctTimes(source()) }),
	}
}

// DistinctTimes returns the point times sorted ascending with duplicates removed
func DistinctTimes(points []models.DataPoint) []time.Time {
	times := make([]time.Time, 0, len(points))
	for _, p := range points {
		if p.Time != nil {
			times = append(times, *p.Time)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := times[:0]
	for i, t := range times {
		if i == 0 || !t.Equal(times[i-1]) {
			out = append(out, t)
		}
	}
	return out
}

// Slices returns the cached distinct times
func (x *TimeSliceIndex) Slices() []time.Time { return x.slices.Get() }

// Invalidate drops the cached slices; the next query recomputes them
func (x *TimeSliceIndex) Invalidate() { x.slices.Invalidate() }

// EnclosingInterval returns the slice interval around t:
//   - before the first slice: [t, first-1s]
//   - inside the slices: [slice[i], slice[i+1]-1s] for the first slice[i+1] > t
//   - within durationMinutes after the last slice: [last, t+duration]
//   - further out: [t-duration, t]
//
// The first rule is not consistent with the others; it is kept as is.
func (x *TimeSliceIndex) EnclosingInterval(t time.Time, durationMinutes float64) (models.DisplayInterval, error) {
	return EnclosingInterval(x.Slices(), t, durationMinutes)
}

// EnclosingInterval is the uncached form of TimeSliceIndex.EnclosingInterval
func EnclosingInterval(ts []time.Time, t time.Time, durationMinutes float64) (models.DisplayInterval, error) {
	if len(ts) == 0 {
		return models.DisplayInterval{}, ErrNoTimeData
	}
	if t.Before(ts[0]) {
		return models.DisplayInterval{Start: t, Finish: ts[0].Add(-sliceShave)}, nil
	}
	for i := 0; i < len(ts)-1; i++ {
		if ts[i+1].After(t) {
			return models.DisplayInterval{Start: ts[i], Finish: ts[i+1].Add(-sliceShave)}, nil
		}
	}

	d := Minutes(durationMinutes)
	last := ts[len(ts)-1]
	if !t.After(last.Add(d)) {
		return models.DisplayInterval{Start: last, Finish: t.Add(d)}, nil
	}
	// counting backwards matches the explicit-duration convention
	return models.DisplayInterval{Start: t.Add(-d), Finish: t}, nil
}

// Minutes converts fractional minutes to a Duration
func Minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// AutoDuration returns the default display duration in minutes: 1% of the
// time span. A zero span yields MinAutoDuration so intervals stay non-empty.
func AutoDuration(timeMin, timeMax time.Time) float64 {
	const percentDisplay = 1.0
	d := timeMax.Sub(timeMin).Seconds() * percentDisplay / (60.0 * 100.0)
	if d <= 0 {
		return MinAutoDuration
	}
	return d
}

// MinAutoDuration is the automatic duration used for datasets with a single time
const MinAutoDuration = 1.0
