package stats

import (
	"math"
	"sort"
)

// Summary is the five-number summary of a value column plus its mean
type Summary struct {
	Count  int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
}

// Summarize computes the summary of values, ignoring NaNs
func Summarize(values []float64) Summary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Summary{}
	}

	sort.Float64s(clean)
	min, q1, median, q3, max := FiveNumberSummary(clean)
	return Summary{
		Count:  len(clean),
		Min:    min,
		Q1:     q1,
		Median: median,
		Q3:     q3,
		Max:    max,
		Mean:   Mean(clean),
	}
}

// MinMax returns the smallest and largest value. ok is false for an empty slice.
func MinMax(values []float64) (min, max float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
