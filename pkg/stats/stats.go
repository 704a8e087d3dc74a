// Package stats provides the small descriptive-statistics helpers used by
// the cohort dashboards: mean, median, Tukey quartiles and five-number
// box-plot summaries. Nothing here is inferential.
package stats

import "sort"

// Mean returns the arithmetic mean. ok is false for empty input.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Median returns the middle value. ok is false for empty input.
func Median(values []float64) (median float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return medianSorted(sorted), true
}

// Quartiles returns Tukey's hinges: the median plus the medians of the
// lower and upper halves (excluding the middle element when the count is
// odd). A single value degrades to q1 == median == q3.
func Quartiles(values []float64) (q1, median, q3 float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	median = medianSorted(sorted)
	if n == 1 {
		return median, median, median, true
	}
	lower := sorted[:n/2]
	upper := sorted[(n+1)/2:]
	return medianSorted(lower), median, medianSorted(upper), true
}

// FiveNumber is a box-plot-ready summary. Outliers lie outside the
// 1.5×IQR fences and are reported separately from Min/Max, which are the
// whisker ends (the extreme non-outlier values).
type FiveNumber struct {
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers,omitempty"`
}

// Summarize computes the five-number summary. ok is false for empty
// input.
func Summarize(values []float64) (FiveNumber, bool) {
	q1, median, q3, ok := Quartiles(values)
	if !ok {
		return FiveNumber{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	iqr := q3 - q1
	loFence := q1 - 1.5*iqr
	hiFence := q3 + 1.5*iqr

	s := FiveNumber{Q1: q1, Median: median, Q3: q3, Min: hiFence, Max: loFence}
	first := true
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			s.Outliers = append(s.Outliers, v)
			continue
		}
		if first {
			s.Min = v
			first = false
		}
		s.Max = v
	}
	if first {
		// Degenerate: every value fenced out. Fall back to raw extremes.
		s.Min = sorted[0]
		s.Max = sorted[len(sorted)-1]
		s.Outliers = nil
	}
	return s, true
}
