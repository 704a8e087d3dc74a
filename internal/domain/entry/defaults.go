// Package entry builds the pre-filled values for the record entry form:
// carry-forward defaults from the patient's most recent prior record, or
// the verbatim existing record when editing, or the global baseline for a
// brand-new patient.
package entry

import (
	"github.com/trajectory/trajectory/internal/domain/record"
)

const (
	// BaselineScore is the absolute default for every score field when a
	// patient has no history at all.
	BaselineScore = 10

	// DefaultJumpThreshold is the composite-score change that triggers a
	// non-blocking plausibility warning during entry.
	DefaultJumpThreshold = 20
)

// DefaultDiseaseGroup is the group pre-selected for new patients.
var DefaultDiseaseGroup = record.DiseaseGroups[0]

// FieldDefaults is what the entry form is seeded with. Existing is true
// in edit mode, i.e. a record already exists at the target slot.
type FieldDefaults struct {
	CompositeScore int            `json:"composite_score"`
	FactorScores   map[string]int `json:"factor_scores"`
	Events         []string       `json:"events"`
	DiseaseGroup   string         `json:"disease_group"`
	Existing       bool           `json:"existing"`
}

func baseline() FieldDefaults {
	d := FieldDefaults{
		CompositeScore: BaselineScore,
		FactorScores:   make(map[string]int, len(record.FactorNames)),
		Events:         []string{},
		DiseaseGroup:   DefaultDiseaseGroup,
	}
	for _, name := range record.FactorNames {
		d.FactorScores[name] = BaselineScore
	}
	return d
}

// copyFrom overlays a record's known fields onto the defaults. Absent
// fields keep their current (baseline or earlier) value. Events are only
// copied in edit mode; a new entry never inherits event tags.
func (d *FieldDefaults) copyFrom(r *record.ScoreRecord, withEvents bool) {
	if r.CompositeScore != nil {
		d.CompositeScore = *r.CompositeScore
	}
	for _, name := range record.FactorNames {
		if v, ok := r.FactorScores[name]; ok {
			d.FactorScores[name] = v
		}
	}
	if r.DiseaseGroup != "" {
		d.DiseaseGroup = r.DiseaseGroup
	}
	if withEvents {
		d.Events = append([]string{}, r.Events...)
	}
}

// DefaultsFor computes the entry-form defaults for one patient at one
// (date, slot) target. history is the patient's full record sequence; it
// is not mutated.
func DefaultsFor(history []*record.ScoreRecord, targetDate record.Date, targetSlot record.TimeSlot) FieldDefaults {
	d := baseline()
	if len(history) == 0 {
		return d
	}

	// The latest disease group follows the patient even when the target
	// predates part of the history.
	latest := history[0]
	for _, r := range history[1:] {
		if record.Before(latest, r) {
			latest = r
		}
	}
	if latest.DiseaseGroup != "" {
		d.DiseaseGroup = latest.DiseaseGroup
	}

	target := &record.ScoreRecord{Date: targetDate, Slot: targetSlot}
	var prior *record.ScoreRecord
	for _, r := range history {
		if r.Date.Equal(targetDate.Time) && r.Slot == targetSlot {
			// Edit mode: the existing record wins verbatim.
			d.Existing = true
			d.copyFrom(r, true)
			return d
		}
		if record.Before(r, target) && (prior == nil || record.Before(prior, r)) {
			prior = r
		}
	}
	if prior != nil {
		d.copyFrom(prior, false)
	}
	return d
}

// JumpWarning describes a large composite-score change between the value
// being entered and the most recent prior record. It never blocks a save.
type JumpWarning struct {
	PreviousScore int    `json:"previous_score"`
	NewScore      int    `json:"new_score"`
	Delta         int    `json:"delta"`
	PreviousDate  string `json:"previous_date"`
	PreviousSlot  string `json:"previous_slot"`
}

// CheckJump compares a score being entered at (targetDate, targetSlot)
// against the patient's most recent strictly-prior composite score and
// returns a warning when the absolute change meets the threshold. A nil
// return means no warning.
func CheckJump(history []*record.ScoreRecord, targetDate record.Date, targetSlot record.TimeSlot, newScore, threshold int) *JumpWarning {
	if threshold <= 0 {
		threshold = DefaultJumpThreshold
	}
	target := &record.ScoreRecord{Date: targetDate, Slot: targetSlot}
	var prior *record.ScoreRecord
	for _, r := range history {
		if r.CompositeScore == nil || !record.Before(r, target) {
			continue
		}
		if prior == nil || record.Before(prior, r) {
			prior = r
		}
	}
	if prior == nil {
		return nil
	}
	delta := newScore - *prior.CompositeScore
	if delta < 0 {
		delta = -delta
	}
	if delta < threshold {
		return nil
	}
	return &JumpWarning{
		PreviousScore: *prior.CompositeScore,
		NewScore:      newScore,
		Delta:         delta,
		PreviousDate:  prior.Date.String(),
		PreviousSlot:  string(prior.Slot),
	}
}
