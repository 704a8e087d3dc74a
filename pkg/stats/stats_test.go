package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	if _, ok := Mean(nil); ok {
		t.Error("empty input should report not-ok")
	}
	m, ok := Mean([]float64{50, 80})
	if !ok || !almostEqual(m, 65) {
		t.Errorf("Mean([50 80]) = %v, %v", m, ok)
	}
}

func TestMedian(t *testing.T) {
	if _, ok := Median(nil); ok {
		t.Error("empty input should report not-ok")
	}
	m, _ := Median([]float64{3, 1, 2})
	if !almostEqual(m, 2) {
		t.Errorf("odd median = %v, want 2", m)
	}
	m, _ = Median([]float64{4, 1, 3, 2})
	if !almostEqual(m, 2.5) {
		t.Errorf("even median = %v, want 2.5", m)
	}
}

func TestQuartiles(t *testing.T) {
	if _, _, _, ok := Quartiles(nil); ok {
		t.Error("empty input should report not-ok")
	}

	// Single value degrades to q1 == median == q3.
	q1, med, q3, _ := Quartiles([]float64{7})
	if !almostEqual(q1, 7) || !almostEqual(med, 7) || !almostEqual(q3, 7) {
		t.Errorf("single value quartiles = %v %v %v", q1, med, q3)
	}

	// Tukey hinges on an odd count exclude the middle element from both
	// halves: {1 2 3 4 5} -> 1.5 / 3 / 4.5.
	q1, med, q3, _ = Quartiles([]float64{5, 3, 1, 4, 2})
	if !almostEqual(q1, 1.5) || !almostEqual(med, 3) || !almostEqual(q3, 4.5) {
		t.Errorf("odd quartiles = %v %v %v, want 1.5 3 4.5", q1, med, q3)
	}

	// Even count: halves are clean splits. {1 2 3 4} -> 1.5 / 2.5 / 3.5.
	q1, med, q3, _ = Quartiles([]float64{1, 2, 3, 4})
	if !almostEqual(q1, 1.5) || !almostEqual(med, 2.5) || !almostEqual(q3, 3.5) {
		t.Errorf("even quartiles = %v %v %v, want 1.5 2.5 3.5", q1, med, q3)
	}
}

func TestSummarize(t *testing.T) {
	if _, ok := Summarize(nil); ok {
		t.Error("empty input should report not-ok")
	}

	s, ok := Summarize([]float64{1, 2, 3, 4, 100})
	if !ok {
		t.Fatal("expected a summary")
	}
	// Hinges: q1 1.5, q3 52 -> fences [-74.25, 127.75]; nothing fenced out.
	if len(s.Outliers) != 0 {
		t.Errorf("unexpected outliers: %v", s.Outliers)
	}
	if !almostEqual(s.Min, 1) || !almostEqual(s.Max, 100) {
		t.Errorf("whiskers = %v..%v, want 1..100", s.Min, s.Max)
	}

	// A tight cluster plus one far value: the far value is an outlier and
	// the whisker stops at the last in-fence value.
	s, _ = Summarize([]float64{10, 10, 10, 10, 11, 50})
	if len(s.Outliers) != 1 || !almostEqual(s.Outliers[0], 50) {
		t.Errorf("expected [50] as outliers, got %v", s.Outliers)
	}
	if !almostEqual(s.Max, 11) {
		t.Errorf("whisker should stop at 11, got %v", s.Max)
	}
}

func TestSummarizeConstantValues(t *testing.T) {
	s, ok := Summarize([]float64{4, 4, 4})
	if !ok {
		t.Fatal("expected a summary")
	}
	if !almostEqual(s.Min, 4) || !almostEqual(s.Max, 4) || len(s.Outliers) != 0 {
		t.Errorf("constant input should collapse cleanly, got %+v", s)
	}
}
