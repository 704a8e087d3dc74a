package entry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trajectory/trajectory/internal/domain/record"
)

// -- Mock Repository --

type memRepo struct {
	tables map[string]*record.Table
}

func newMemRepo() *memRepo {
	return &memRepo{tables: make(map[string]*record.Table)}
}

func (m *memRepo) Load(_ context.Context, facilityID string) (*record.Table, error) {
	t, ok := m.tables[facilityID]
	if !ok {
		return record.NewTable(), nil
	}
	return t.Clone(), nil
}

func (m *memRepo) Save(_ context.Context, facilityID string, t *record.Table) error {
	m.tables[facilityID] = t.Clone()
	return nil
}

func (m *memRepo) Facilities(_ context.Context) ([]string, error) {
	var out []string
	for f := range m.tables {
		out = append(out, f)
	}
	return out, nil
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("facility_id", "facA")
	c.Set("facility_master", false)
	return c, rec
}

func seedHandler(repo *memRepo) *Handler {
	return NewHandler(record.NewService(repo), DefaultJumpThreshold)
}

func TestUpsertRecordEndpoint(t *testing.T) {
	repo := newMemRepo()
	h := seedHandler(repo)

	body := `{"patient_id":"p1","date":"2025-03-01","time_slot":"AM","composite_score":60}`
	c, rec := newContext(t, http.MethodPost, "/records", body)
	if err := h.UpsertRecord(c); err != nil {
		t.Fatalf("UpsertRecord failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Record  *record.ScoreRecord `json:"record"`
		Warning *JumpWarning        `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Record == nil || resp.Record.PatientID != "p1" {
		t.Errorf("unexpected record: %+v", resp.Record)
	}
	if resp.Warning != nil {
		t.Errorf("first record should not warn, got %+v", resp.Warning)
	}

	saved, _ := repo.Load(context.Background(), "facA")
	if saved.Len() != 1 {
		t.Fatalf("record not persisted: %d rows", saved.Len())
	}
}

func TestUpsertRecordJumpWarningDoesNotBlock(t *testing.T) {
	repo := newMemRepo()
	h := seedHandler(repo)

	first := `{"patient_id":"p1","date":"2025-03-01","time_slot":"AM","composite_score":30}`
	c, _ := newContext(t, http.MethodPost, "/records", first)
	if err := h.UpsertRecord(c); err != nil {
		t.Fatal(err)
	}

	second := `{"patient_id":"p1","date":"2025-03-01","time_slot":"PM","composite_score":80}`
	c, rec := newContext(t, http.MethodPost, "/records", second)
	if err := h.UpsertRecord(c); err != nil {
		t.Fatalf("warned save should still succeed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201 despite warning, got %d", rec.Code)
	}

	var resp struct {
		Warning *JumpWarning `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Warning == nil || resp.Warning.Delta != 50 {
		t.Errorf("expected a delta-50 warning, got %+v", resp.Warning)
	}

	saved, _ := repo.Load(context.Background(), "facA")
	if saved.Len() != 2 {
		t.Errorf("both records should be persisted, got %d", saved.Len())
	}
}

func TestUpsertRecordRejectsInvalid(t *testing.T) {
	h := seedHandler(newMemRepo())
	c, _ := newContext(t, http.MethodPost, "/records", `{"date":"2025-03-01","time_slot":"AM"}`)
	err := h.UpsertRecord(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("missing patient_id should 400, got %v", err)
	}
}

func TestDefaultsEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.tables["facA"] = record.NewTable(&record.ScoreRecord{
		PatientID:      "p1",
		Date:           record.NewDate(2025, time.March, 1),
		Slot:           record.SlotPM,
		CompositeScore: intPtr(55),
		DiseaseGroup:   "septic-shock",
		Status:         record.StatusActive,
	})
	h := seedHandler(repo)

	c, rec := newContext(t, http.MethodGet, "/patients/p1/defaults?date=2025-03-02&slot=AM", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := h.Defaults(c); err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}

	var d FieldDefaults
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Existing || d.CompositeScore != 55 || d.DiseaseGroup != "septic-shock" {
		t.Errorf("unexpected defaults: %+v", d)
	}

	// Missing date is a 400.
	c, _ = newContext(t, http.MethodGet, "/patients/p1/defaults?slot=AM", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	err := h.Defaults(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("missing date should 400, got %v", err)
	}
}

func TestListPatientsEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.tables["facA"] = record.NewTable(
		&record.ScoreRecord{PatientID: "p1", Date: record.NewDate(2025, time.March, 1), Slot: record.SlotAM, Status: record.StatusActive},
		&record.ScoreRecord{PatientID: "p2", Date: record.NewDate(2025, time.March, 1), Slot: record.SlotAM, Status: record.StatusArchived},
	)
	h := seedHandler(repo)

	c, rec := newContext(t, http.MethodGet, "/patients?status=active", "")
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "p1") || strings.Contains(body, "p2") {
		t.Errorf("active filter wrong: %s", body)
	}

	c, _ = newContext(t, http.MethodGet, "/patients?status=discharged", "")
	err := h.ListPatients(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("unknown status should 400, got %v", err)
	}
}

func TestArchiveEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.tables["facA"] = record.NewTable(
		&record.ScoreRecord{PatientID: "p1", Date: record.NewDate(2025, time.March, 1), Slot: record.SlotAM, Status: record.StatusActive},
	)
	h := seedHandler(repo)

	c, rec := newContext(t, http.MethodPost, "/patients/p1/archive", `{"outcome":"home-discharge"}`)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := h.Archive(c); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	saved, _ := repo.Load(context.Background(), "facA")
	r := saved.Records()[0]
	if r.Status != record.StatusArchived || r.Outcome != "home-discharge" {
		t.Errorf("archive not persisted: %+v", r)
	}

	c, _ = newContext(t, http.MethodPost, "/patients/ghost/archive", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	err := h.Archive(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("unknown patient should 404, got %v", err)
	}
}

func TestPatientRecordsEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.tables["facA"] = record.NewTable(
		&record.ScoreRecord{
			PatientID: "p1", Date: record.NewDate(2025, time.March, 1), Slot: record.SlotAM,
			CompositeScore: intPtr(15), Status: record.StatusActive,
		},
		&record.ScoreRecord{
			PatientID: "p1", Date: record.NewDate(2025, time.March, 1), Slot: record.SlotPM,
			CompositeScore: intPtr(65), Status: record.StatusActive,
		},
	)
	h := seedHandler(repo)

	c, rec := newContext(t, http.MethodGet, "/patients/p1/records", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := h.PatientRecords(c); err != nil {
		t.Fatalf("PatientRecords failed: %v", err)
	}

	var out []struct {
		PatientID string `json:"patient_id"`
		Derived   struct {
			Phase       string  `json:"phase"`
			ElapsedDays int     `json:"elapsed_days"`
			PlotOrdinal float64 `json:"plot_ordinal"`
		} `json:"derived"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Derived.Phase != "hyperacute" || out[0].Derived.PlotOrdinal != 1.0 {
		t.Errorf("AM derived view wrong: %+v", out[0].Derived)
	}
	if out[1].Derived.Phase != "recovery" || out[1].Derived.PlotOrdinal != 1.5 {
		t.Errorf("PM derived view wrong: %+v", out[1].Derived)
	}
}
