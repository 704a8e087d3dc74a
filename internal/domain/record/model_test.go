package record

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.String() != "2025-03-01" {
		t.Errorf("expected 2025-03-01, got %s", d.String())
	}

	zero, err := ParseDate("")
	if err != nil {
		t.Fatalf("empty string should not error: %v", err)
	}
	if !zero.IsZero() {
		t.Error("empty string should parse to zero date")
	}

	if _, err := ParseDate("03/01/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateDaysSince(t *testing.T) {
	a := NewDate(2025, time.March, 1)
	b := NewDate(2025, time.March, 4)
	if got := b.DaysSince(a); got != 3 {
		t.Errorf("expected 3 days, got %d", got)
	}
	if got := a.DaysSince(a); got != 0 {
		t.Errorf("expected 0 days, got %d", got)
	}
}

func TestParseSlot(t *testing.T) {
	cases := map[string]TimeSlot{
		"AM":  SlotAM,
		"PM":  SlotPM,
		"pm":  SlotPM,
		" PM": SlotPM,
		"":    SlotAM,
		"xx":  SlotAM,
	}
	for in, want := range cases {
		if got := ParseSlot(in); got != want {
			t.Errorf("ParseSlot(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus("archived") != StatusArchived {
		t.Error("archived should parse to archived")
	}
	if ParseStatus("ARCHIVED") != StatusArchived {
		t.Error("status parsing should be case-insensitive")
	}
	if ParseStatus("") != StatusActive {
		t.Error("blank status should default to active")
	}
	if ParseStatus("garbage") != StatusActive {
		t.Error("unknown status should default to active")
	}
}

func TestBefore(t *testing.T) {
	am := &ScoreRecord{Date: NewDate(2025, time.March, 1), Slot: SlotAM}
	pm := &ScoreRecord{Date: NewDate(2025, time.March, 1), Slot: SlotPM}
	next := &ScoreRecord{Date: NewDate(2025, time.March, 2), Slot: SlotAM}

	if !Before(am, pm) {
		t.Error("AM should order before PM on the same day")
	}
	if !Before(pm, next) {
		t.Error("PM should order before the next day's AM")
	}
	if Before(pm, am) {
		t.Error("PM should not order before AM")
	}
	if Before(am, am) {
		t.Error("a record should not order before itself")
	}
}

func TestTableUpsertReplacesSameKey(t *testing.T) {
	tbl := NewTable()
	tbl.Upsert(&ScoreRecord{
		PatientID:      "p1",
		Date:           NewDate(2025, time.March, 1),
		Slot:           SlotAM,
		CompositeScore: intPtr(80),
	})
	tbl.Upsert(&ScoreRecord{
		PatientID:      "p1",
		Date:           NewDate(2025, time.March, 1),
		Slot:           SlotAM,
		CompositeScore: intPtr(75),
	})

	if tbl.Len() != 1 {
		t.Fatalf("expected 1 record after re-upsert, got %d", tbl.Len())
	}
	if got := *tbl.Records()[0].CompositeScore; got != 75 {
		t.Errorf("expected the later record to win, got score %d", got)
	}
}

func TestTableSortOrder(t *testing.T) {
	tbl := NewTable(
		&ScoreRecord{PatientID: "p2", Date: NewDate(2025, time.March, 1), Slot: SlotAM},
		&ScoreRecord{PatientID: "p1", Date: NewDate(2025, time.March, 2), Slot: SlotAM},
		&ScoreRecord{PatientID: "p1", Date: NewDate(2025, time.March, 1), Slot: SlotPM},
		&ScoreRecord{PatientID: "p1", Date: NewDate(2025, time.March, 1), Slot: SlotAM},
	)

	want := []Key{
		{"p1", NewDate(2025, time.March, 1), SlotAM},
		{"p1", NewDate(2025, time.March, 1), SlotPM},
		{"p1", NewDate(2025, time.March, 2), SlotAM},
		{"p2", NewDate(2025, time.March, 1), SlotAM},
	}
	recs := tbl.Records()
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, r := range recs {
		if r.Key() != want[i] {
			t.Errorf("position %d: got %+v, want %+v", i, r.Key(), want[i])
		}
	}
}

func TestTablePatientIDs(t *testing.T) {
	tbl := NewTable(
		&ScoreRecord{PatientID: "b", Date: NewDate(2025, time.March, 1), Slot: SlotAM, Status: StatusActive},
		&ScoreRecord{PatientID: "a", Date: NewDate(2025, time.March, 1), Slot: SlotAM, Status: StatusArchived},
	)

	all := tbl.PatientIDs("")
	if len(all) != 2 || all[0] != "a" || all[1] != "b" {
		t.Errorf("expected sorted [a b], got %v", all)
	}
	active := tbl.PatientIDs(StatusActive)
	if len(active) != 1 || active[0] != "b" {
		t.Errorf("expected [b], got %v", active)
	}
}

func TestTableSetStatus(t *testing.T) {
	tbl := NewTable(
		&ScoreRecord{PatientID: "p1", Date: NewDate(2025, time.March, 1), Slot: SlotAM, Status: StatusActive},
		&ScoreRecord{PatientID: "p1", Date: NewDate(2025, time.March, 1), Slot: SlotPM, Status: StatusActive},
	)

	if n := tbl.SetStatus("p1", StatusArchived, "home-discharge"); n != 2 {
		t.Fatalf("expected 2 rows changed, got %d", n)
	}
	for _, r := range tbl.Records() {
		if r.Status != StatusArchived || r.Outcome != "home-discharge" {
			t.Errorf("row not archived with outcome: %+v", r)
		}
	}

	if n := tbl.SetStatus("p1", StatusActive, ""); n != 2 {
		t.Fatalf("expected 2 rows changed on reactivate, got %d", n)
	}
	for _, r := range tbl.Records() {
		if r.Status != StatusActive || r.Outcome != "" {
			t.Errorf("reactivation should clear the outcome: %+v", r)
		}
	}

	if n := tbl.SetStatus("missing", StatusArchived, ""); n != 0 {
		t.Errorf("expected 0 rows for unknown patient, got %d", n)
	}
}

func TestRecordClone(t *testing.T) {
	orig := &ScoreRecord{
		PatientID:    "p1",
		Date:         NewDate(2025, time.March, 1),
		Slot:         SlotAM,
		FactorScores: map[string]int{"circulation": 10},
		Events:       []string{"admission"},
	}
	cp := orig.Clone()
	cp.FactorScores["circulation"] = 99
	cp.Events[0] = "changed"

	if orig.FactorScores["circulation"] != 10 {
		t.Error("clone shares the factor map")
	}
	if orig.Events[0] != "admission" {
		t.Error("clone shares the events slice")
	}
}
