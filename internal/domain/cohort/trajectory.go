package cohort

import (
	"sort"

	"github.com/trajectory/trajectory/pkg/stats"

	"github.com/trajectory/trajectory/internal/domain/record"
)

// TrajectoryPoint is the cohort mean at one half-day ordinal. N is how
// many patients had a record there; absent patients are not imputed.
type TrajectoryPoint struct {
	Ordinal float64 `json:"ordinal"`
	Mean    float64 `json:"mean"`
	N       int     `json:"n"`
}

// PatientPoint is one record of one patient on the plot axis.
type PatientPoint struct {
	Ordinal float64 `json:"ordinal"`
	Score   int     `json:"score"`
}

// PatientTrajectory is a single patient's raw composite-score curve,
// used for overlay comparison against the cohort mean.
type PatientTrajectory struct {
	PatientID string         `json:"patient_id"`
	Points    []PatientPoint `json:"points"`
}

// TrajectoryView is the mean-trajectory dashboard payload for one
// disease group.
type TrajectoryView struct {
	DiseaseGroup string              `json:"disease_group"`
	Mean         []TrajectoryPoint   `json:"mean"`
	Patients     []PatientTrajectory `json:"patients"`
	Overlay      *PatientTrajectory  `json:"overlay,omitempty"`
	NoData       bool                `json:"no_data"`
}

func trajectoryOf(h patientHistory) PatientTrajectory {
	pt := PatientTrajectory{PatientID: h.id}
	for i, r := range h.records {
		if r.CompositeScore == nil || h.views[i].PlotOrdinal == 0 {
			continue
		}
		pt.Points = append(pt.Points, PatientPoint{
			Ordinal: h.views[i].PlotOrdinal,
			Score:   *r.CompositeScore,
		})
	}
	return pt
}

// MeanTrajectory averages composite scores per plot ordinal across the
// archived patients of one disease group. Patients contribute only at
// ordinals where they actually have a numeric record. overlayPatientID
// optionally names a still-active patient of the same group whose raw
// curve is returned alongside for comparison.
func MeanTrajectory(t *record.Table, group, overlayPatientID string) TrajectoryView {
	view := TrajectoryView{DiseaseGroup: group}

	histories := archivedHistories(t, group)
	if len(histories) == 0 {
		view.NoData = true
	}

	byOrdinal := map[float64][]float64{}
	for _, h := range histories {
		pt := trajectoryOf(h)
		view.Patients = append(view.Patients, pt)
		for _, p := range pt.Points {
			byOrdinal[p.Ordinal] = append(byOrdinal[p.Ordinal], float64(p.Score))
		}
	}

	ordinals := make([]float64, 0, len(byOrdinal))
	for o := range byOrdinal {
		ordinals = append(ordinals, o)
	}
	sort.Float64s(ordinals)
	for _, o := range ordinals {
		mean, _ := stats.Mean(byOrdinal[o])
		view.Mean = append(view.Mean, TrajectoryPoint{Ordinal: o, Mean: mean, N: len(byOrdinal[o])})
	}

	if overlayPatientID != "" {
		if h, ok := historyOf(t, overlayPatientID); ok && h.group == group {
			pt := trajectoryOf(h)
			view.Overlay = &pt
		}
	}
	return view
}
