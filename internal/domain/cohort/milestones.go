package cohort

import (
	"github.com/trajectory/trajectory/pkg/stats"

	"github.com/trajectory/trajectory/internal/domain/events"
	"github.com/trajectory/trajectory/internal/domain/record"
)

// MilestoneStat is the time-to-event summary for one milestone event in
// one disease group. N counts the patients who reached the milestone;
// patients who never did are excluded from the quartiles rather than
// counted as zero or infinite. NoData marks groups where nobody reached
// it.
type MilestoneStat struct {
	Event        string  `json:"event"`
	DiseaseGroup string  `json:"disease_group"`
	N            int     `json:"n"`
	Q1           float64 `json:"q1"`
	Median       float64 `json:"median"`
	Q3           float64 `json:"q3"`
	NoData       bool    `json:"no_data"`
}

// ComplicationRate is the occurrence rate of one complication event in
// one disease group, reported as count/total alongside the percentage so
// small denominators stay visible.
type ComplicationRate struct {
	Event        string  `json:"event"`
	DiseaseGroup string  `json:"disease_group"`
	Count        int     `json:"count"`
	Total        int     `json:"total"`
	Percent      float64 `json:"percent"`
	NoData       bool    `json:"no_data"`
}

// MilestoneView is the milestone-and-complication summary table.
type MilestoneView struct {
	Milestones    []MilestoneStat    `json:"milestones"`
	Complications []ComplicationRate `json:"complications"`
}

// firstDay returns the earliest elapsed day on which the event appears in
// the patient's records, or false if it never does.
func firstDay(h patientHistory, event string) (int, bool) {
	for i, r := range h.records {
		if h.views[i].ElapsedDays == 0 {
			continue
		}
		if events.Contains(r.Events, event) {
			return h.views[i].ElapsedDays, true
		}
	}
	return 0, false
}

// MilestoneSummary builds the milestone time-to-event quartiles and the
// complication rates for every disease group present among archived
// patients.
func MilestoneSummary(t *record.Table) MilestoneView {
	histories := archivedHistories(t, "")

	byGroup := map[string][]patientHistory{}
	for _, h := range histories {
		byGroup[h.group] = append(byGroup[h.group], h)
	}

	var view MilestoneView
	for _, group := range DiseaseGroups(t) {
		members := byGroup[group]

		for _, event := range events.Milestones() {
			var days []float64
			for _, h := range members {
				if d, ok := firstDay(h, event); ok {
					days = append(days, float64(d))
				}
			}
			stat := MilestoneStat{Event: event, DiseaseGroup: group, N: len(days)}
			if q1, median, q3, ok := stats.Quartiles(days); ok {
				stat.Q1, stat.Median, stat.Q3 = q1, median, q3
			} else {
				stat.NoData = true
			}
			view.Milestones = append(view.Milestones, stat)
		}

		for _, event := range events.Complications() {
			rate := ComplicationRate{Event: event, DiseaseGroup: group, Total: len(members)}
			for _, h := range members {
				if _, ok := firstDay(h, event); ok {
					rate.Count++
				}
			}
			if rate.Total == 0 {
				rate.NoData = true
			} else {
				rate.Percent = 100 * float64(rate.Count) / float64(rate.Total)
			}
			view.Complications = append(view.Complications, rate)
		}
	}
	return view
}
