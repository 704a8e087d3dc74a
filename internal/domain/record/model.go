package record

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used everywhere in the service:
// in the API, in persisted files and in log output.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. The embedded
// time.Time is always midnight UTC so day arithmetic is exact.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string. The empty string parses to the
// zero Date, which IsZero reports true for.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DaysSince returns the number of whole calendar days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.Sub(o.Time) / (24 * time.Hour))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeSlot identifies one of the two assessment slots per day.
type TimeSlot string

const (
	SlotAM TimeSlot = "AM"
	SlotPM TimeSlot = "PM"
)

// Valid reports whether the slot is one of the two known values.
func (s TimeSlot) Valid() bool { return s == SlotAM || s == SlotPM }

// ParseSlot normalizes a persisted slot value. Anything that is not
// recognizably PM is treated as AM; the adapter tolerates rather than
// rejects.
func ParseSlot(s string) TimeSlot {
	if strings.EqualFold(strings.TrimSpace(s), string(SlotPM)) {
		return SlotPM
	}
	return SlotAM
}

// ordinal orders AM before PM on the same date.
func (s TimeSlot) ordinal() int {
	if s == SlotPM {
		return 1
	}
	return 0
}

// Status is a patient's occupancy state. Status lives on every record of
// the patient rather than on a separate patient row; the flat persisted
// table has no second entity.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// ParseStatus normalizes a persisted status value. Blank legacy rows
// default to active, matching how gaps were back-filled historically.
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusArchived)) {
		return StatusArchived
	}
	return StatusActive
}

// FactorNames lists the seven fixed assessment sub-dimensions, in display
// order.
var FactorNames = []string{
	"circulation",
	"respiration",
	"consciousness_sedation",
	"renal_fluid",
	"activity_rehab",
	"nutrition_gi",
	"infection_inflammation",
}

// Disease groups offered by the entry form. Free-form values are also
// accepted end to end.
var DiseaseGroups = []string{
	"septic-shock",
	"cardiogenic-shock",
	"post-cardiac-surgery",
	"other",
}

// ScoreRecord is one severity assessment for one patient at one slot.
// CompositeScore is a pointer because legacy rows may not carry it; a
// factor score that is absent from FactorScores is likewise unknown.
type ScoreRecord struct {
	PatientID      string         `json:"patient_id"`
	Date           Date           `json:"date"`
	Slot           TimeSlot       `json:"time_slot"`
	CompositeScore *int           `json:"composite_score,omitempty"`
	FactorScores   map[string]int `json:"factor_scores,omitempty"`
	Events         []string       `json:"events"`
	DiseaseGroup   string         `json:"disease_group,omitempty"`
	Status         Status         `json:"status"`
	Outcome        string         `json:"outcome,omitempty"`
}

// Key identifies a record within a facility table.
type Key struct {
	PatientID string
	Date      Date
	Slot      TimeSlot
}

// Key returns the record's identifying triple.
func (r *ScoreRecord) Key() Key {
	return Key{PatientID: r.PatientID, Date: r.Date, Slot: r.Slot}
}

// Clone returns a deep copy of the record.
func (r *ScoreRecord) Clone() *ScoreRecord {
	cp := *r
	if r.FactorScores != nil {
		cp.FactorScores = make(map[string]int, len(r.FactorScores))
		for k, v := range r.FactorScores {
			cp.FactorScores[k] = v
		}
	}
	if r.Events != nil {
		cp.Events = append([]string(nil), r.Events...)
	}
	return &cp
}

// Before orders two records of the same patient chronologically:
// by date, AM before PM on the same date.
func Before(a, b *ScoreRecord) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.Before(b.Date.Time)
	}
	return a.Slot.ordinal() < b.Slot.ordinal()
}

// Table is a facility's full set of score records, kept sorted by
// (patient, date, slot). It is the unit of persistence: stores load and
// save whole tables, never single rows.
type Table struct {
	records []*ScoreRecord
}

// NewTable builds a table from the given records, applying keep-last
// deduplication on the (patient, date, slot) key.
func NewTable(records ...*ScoreRecord) *Table {
	t := &Table{}
	for _, r := range records {
		t.Upsert(r)
	}
	return t
}

// Upsert inserts the record, replacing any existing record with the same
// key. Records are never deleted, only superseded.
func (t *Table) Upsert(rec *ScoreRecord) {
	key := rec.Key()
	for i, existing := range t.records {
		if existing.Key() == key {
			t.records[i] = rec
			return
		}
	}
	t.records = append(t.records, rec)
	sort.SliceStable(t.records, func(i, j int) bool {
		a, b := t.records[i], t.records[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		return Before(a, b)
	})
}

// Len returns the number of records in the table.
func (t *Table) Len() int { return len(t.records) }

// Records returns the table's records in stable sorted order. The slice
// is shared; callers that mutate must Clone first.
func (t *Table) Records() []*ScoreRecord { return t.records }

// Patient returns the ordered record history of one patient.
func (t *Table) Patient(patientID string) []*ScoreRecord {
	var out []*ScoreRecord
	for _, r := range t.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

// PatientIDs lists distinct patient IDs whose latest status matches the
// given status, sorted. An empty status matches every patient.
func (t *Table) PatientIDs(status Status) []string {
	latest := map[string]Status{}
	for _, r := range t.records {
		latest[r.PatientID] = r.Status
	}
	var ids []string
	for id, st := range latest {
		if status == "" || st == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetStatus rewrites the status (and, when archiving, the outcome) on all
// of a patient's records, returning how many rows changed.
func (t *Table) SetStatus(patientID string, status Status, outcome string) int {
	n := 0
	for _, r := range t.records {
		if r.PatientID != patientID {
			continue
		}
		r.Status = status
		if status == StatusArchived {
			r.Outcome = outcome
		} else {
			r.Outcome = ""
		}
		n++
	}
	return n
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cp := &Table{records: make([]*ScoreRecord, len(t.records))}
	for i, r := range t.records {
		cp.records[i] = r.Clone()
	}
	return cp
}

// FilterStatus returns a new table containing only records of patients
// whose status matches.
func (t *Table) FilterStatus(status Status) *Table {
	out := &Table{}
	for _, r := range t.records {
		if r.Status == status {
			out.records = append(out.records, r)
		}
	}
	return out
}
