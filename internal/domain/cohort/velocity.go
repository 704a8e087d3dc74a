package cohort

import (
	"sort"

	"github.com/trajectory/trajectory/pkg/stats"

	"github.com/trajectory/trajectory/internal/domain/record"
)

// VelocityPoint is the mean per-record composite-score change observed on
// one whole elapsed day across the cohort.
type VelocityPoint struct {
	Day       int     `json:"day"`
	MeanDelta float64 `json:"mean_delta"`
	N         int     `json:"n"`
}

// VelocityView is the recovery-speed dashboard payload for one disease
// group.
type VelocityView struct {
	DiseaseGroup string          `json:"disease_group"`
	Points       []VelocityPoint `json:"points"`
	NoData       bool            `json:"no_data"`
}

// RecoveryVelocity computes, per patient, the first difference of the
// composite score in plot-ordinal order, then averages the deltas per
// integer elapsed day across the group's archived patients. Each
// patient's first scored record has no delta and is excluded; records
// without a numeric score neither produce nor receive a delta.
func RecoveryVelocity(t *record.Table, group string) VelocityView {
	view := VelocityView{DiseaseGroup: group}

	histories := archivedHistories(t, group)
	if len(histories) == 0 {
		view.NoData = true
		return view
	}

	byDay := map[int][]float64{}
	for _, h := range histories {
		prev := -1
		for i, r := range h.records {
			if r.CompositeScore == nil || h.views[i].ElapsedDays == 0 {
				continue
			}
			if prev >= 0 {
				delta := float64(*r.CompositeScore - *h.records[prev].CompositeScore)
				day := h.views[i].ElapsedDays
				byDay[day] = append(byDay[day], delta)
			}
			prev = i
		}
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, d := range days {
		mean, _ := stats.Mean(byDay[d])
		view.Points = append(view.Points, VelocityPoint{Day: d, MeanDelta: mean, N: len(byDay[d])})
	}
	return view
}
