// Package derive computes the display fields that are never persisted:
// clinical phase, elapsed days since admission and the half-day plot
// ordinal. Everything here is a pure function of a record history.
package derive

import (
	"github.com/trajectory/trajectory/internal/domain/record"
)

// Phase is the ordered clinical-recovery category derived from the
// composite score.
type Phase string

const (
	PhaseHyperacute    Phase = "hyperacute"
	PhaseMaintenance   Phase = "maintenance"
	PhaseRecovery      Phase = "recovery"
	PhaseTransferReady Phase = "transfer-ready"
	PhaseUnclassified  Phase = "unclassified"
)

// Phases lists the four real phases in severity order.
var Phases = []Phase{PhaseHyperacute, PhaseMaintenance, PhaseRecovery, PhaseTransferReady}

// PhaseOf bins a composite score into a phase. The canonical partition of
// [0,100] is [0,20] / (20,60] / (60,80] / (80,100]. A nil or out-of-range
// score is unclassified, never an error.
func PhaseOf(score *int) Phase {
	if score == nil {
		return PhaseUnclassified
	}
	s := *score
	switch {
	case s < 0 || s > 100:
		return PhaseUnclassified
	case s <= 20:
		return PhaseHyperacute
	case s <= 60:
		return PhaseMaintenance
	case s <= 80:
		return PhaseRecovery
	default:
		return PhaseTransferReady
	}
}

// View holds the derived fields for one record. ElapsedDays is 1 on the
// patient's first recorded day; PlotOrdinal adds 0.5 for the PM slot so
// AM and PM interleave on a single numeric axis.
type View struct {
	Phase       Phase   `json:"phase"`
	ElapsedDays int     `json:"elapsed_days"`
	PlotOrdinal float64 `json:"plot_ordinal"`
}

// Ordinal converts a (date, slot) to its plot position relative to the
// patient's first record date.
func Ordinal(first, date record.Date, slot record.TimeSlot) float64 {
	days := float64(date.DaysSince(first) + 1)
	if slot == record.SlotPM {
		days += 0.5
	}
	return days
}

// Derive computes one View per input record, order-preserving. Elapsed
// days are relative to the minimum date across the whole input per
// patient, so the result must be recomputed whenever the set changes.
// Records with no date derive to an unclassified, zero-valued view.
func Derive(records []*record.ScoreRecord) []View {
	views := make([]View, len(records))
	if len(records) == 0 {
		return views
	}

	first := map[string]record.Date{}
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		f, ok := first[r.PatientID]
		if !ok || r.Date.Before(f.Time) {
			first[r.PatientID] = r.Date
		}
	}

	for i, r := range records {
		f, ok := first[r.PatientID]
		if !ok || r.Date.IsZero() {
			views[i] = View{Phase: PhaseUnclassified}
			continue
		}
		elapsed := r.Date.DaysSince(f) + 1
		views[i] = View{
			Phase:       PhaseOf(r.CompositeScore),
			ElapsedDays: elapsed,
			PlotOrdinal: Ordinal(f, r.Date, r.Slot),
		}
	}
	return views
}
