// Package cohort computes the four dashboard aggregates over archived
// patients grouped by disease group: mean trajectory, recovery-speed
// curve, phase-duration distribution and the milestone/complication
// summary. Every function is a pure read of the table it is handed;
// callers may run them concurrently against the same snapshot.
package cohort

import (
	"sort"

	"github.com/trajectory/trajectory/internal/domain/derive"
	"github.com/trajectory/trajectory/internal/domain/record"
)

// patientHistory pairs one patient's ordered records with their derived
// views, plus the disease group the patient is attributed to (the group
// on the latest record, falling back to "other").
type patientHistory struct {
	id      string
	group   string
	records []*record.ScoreRecord
	views   []derive.View
}

func groupOf(records []*record.ScoreRecord) string {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].DiseaseGroup != "" {
			return records[i].DiseaseGroup
		}
	}
	return "other"
}

func historyOf(t *record.Table, patientID string) (patientHistory, bool) {
	records := t.Patient(patientID)
	if len(records) == 0 {
		return patientHistory{}, false
	}
	return patientHistory{
		id:      patientID,
		group:   groupOf(records),
		records: records,
		views:   derive.Derive(records),
	}, true
}

// archivedHistories collects every archived patient's history. When group
// is non-empty only patients attributed to that group are returned.
func archivedHistories(t *record.Table, group string) []patientHistory {
	archived := t.FilterStatus(record.StatusArchived)
	var out []patientHistory
	for _, id := range archived.PatientIDs("") {
		h, ok := historyOf(archived, id)
		if !ok {
			continue
		}
		if group != "" && h.group != group {
			continue
		}
		out = append(out, h)
	}
	return out
}

// DiseaseGroups lists the disease groups present among archived
// patients, sorted.
func DiseaseGroups(t *record.Table) []string {
	seen := map[string]bool{}
	for _, h := range archivedHistories(t, "") {
		seen[h.group] = true
	}
	var out []string
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
