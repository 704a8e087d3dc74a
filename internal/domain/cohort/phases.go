package cohort

import (
	"github.com/trajectory/trajectory/pkg/stats"

	"github.com/trajectory/trajectory/internal/domain/derive"
	"github.com/trajectory/trajectory/internal/domain/record"
)

// PhaseDurationGroup is the distribution of per-patient days spent in one
// phase within one disease group. Values holds the raw per-patient
// day-counts so the box plot can be recomputed downstream.
type PhaseDurationGroup struct {
	DiseaseGroup string           `json:"disease_group"`
	Phase        derive.Phase     `json:"phase"`
	Values       []float64        `json:"values"`
	Summary      stats.FiveNumber `json:"summary"`
	N            int              `json:"n"`
	NoData       bool             `json:"no_data"`
}

// PhaseDurations counts, for every archived patient, the half-day slots
// classified into each phase and converts them to days. Unclassified
// slots are not attributed to any phase, so a patient's four phase
// durations sum to their classified length of stay. The result covers
// every (disease group, phase) pair for the groups present, in phase
// order.
func PhaseDurations(t *record.Table) []PhaseDurationGroup {
	histories := archivedHistories(t, "")

	// group -> phase -> per-patient day counts
	byGroup := map[string]map[derive.Phase][]float64{}
	for _, h := range histories {
		counts := map[derive.Phase]int{}
		for _, v := range h.views {
			if v.Phase == derive.PhaseUnclassified {
				continue
			}
			counts[v.Phase]++
		}
		if byGroup[h.group] == nil {
			byGroup[h.group] = map[derive.Phase][]float64{}
		}
		for _, phase := range derive.Phases {
			days := float64(counts[phase]) / 2
			byGroup[h.group][phase] = append(byGroup[h.group][phase], days)
		}
	}

	var out []PhaseDurationGroup
	for _, group := range DiseaseGroups(t) {
		for _, phase := range derive.Phases {
			values := byGroup[group][phase]
			g := PhaseDurationGroup{
				DiseaseGroup: group,
				Phase:        phase,
				Values:       values,
				N:            len(values),
			}
			if summary, ok := stats.Summarize(values); ok {
				g.Summary = summary
			} else {
				g.NoData = true
			}
			out = append(out, g)
		}
	}
	return out
}
