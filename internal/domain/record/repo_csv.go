package record

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trajectory/trajectory/internal/domain/events"
)

const (
	filePrefix = "patient_data_"
	fileSuffix = ".csv"

	// legacyScoreColumn is the composite-score column name used by old
	// facility files.
	legacyScoreColumn = "score"
)

// Columns is the canonical persisted column set, one row per record.
var Columns = buildColumns()

func buildColumns() []string {
	cols := []string{"patient_id", "date", "time_slot", "composite_score"}
	for _, name := range FactorNames {
		cols = append(cols, name+"_score")
	}
	return append(cols, "events", "status", "disease_group", "outcome")
}

// CSVStore persists one flat CSV file per facility under a data
// directory. Saves rewrite the whole file in place.
type CSVStore struct {
	dir string
	log zerolog.Logger
}

// NewCSVStore creates the store, making the data directory if needed.
func NewCSVStore(dir string, log zerolog.Logger) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir, log: log}, nil
}

func (s *CSVStore) path(facilityID string) string {
	return filepath.Join(s.dir, filePrefix+facilityID+fileSuffix)
}

// Load reads a facility's table. A missing file yields an empty table; so
// does an unreadable one, logged as a warning rather than surfaced as an
// error, because display code downstream expects to keep working.
func (s *CSVStore) Load(_ context.Context, facilityID string) (*Table, error) {
	f, err := os.Open(s.path(facilityID))
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(), nil
		}
		s.log.Warn().Err(err).Str("facility", facilityID).Msg("record file unreadable, starting empty")
		return NewTable(), nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		s.log.Warn().Err(err).Str("facility", facilityID).Msg("record file malformed, starting empty")
		return NewTable(), nil
	}
	if len(rows) == 0 {
		return NewTable(), nil
	}

	// Column positions come from the header so files with reordered,
	// missing or legacy columns all normalize to the same shape.
	index := map[string]int{}
	for i, name := range rows[0] {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index["composite_score"]; !ok {
		if i, ok := index[legacyScoreColumn]; ok {
			index["composite_score"] = i
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	t := NewTable()
	for _, row := range rows[1:] {
		patientID := field(row, "patient_id")
		if patientID == "" {
			continue
		}
		date, err := ParseDate(field(row, "date"))
		if err != nil {
			// Keep the record; it derives to unclassified downstream.
			date = Date{}
		}
		rec := &ScoreRecord{
			PatientID:      patientID,
			Date:           date,
			Slot:           ParseSlot(field(row, "time_slot")),
			CompositeScore: parseScore(field(row, "composite_score")),
			Events:         events.ParseList(field(row, "events")),
			DiseaseGroup:   field(row, "disease_group"),
			Status:         ParseStatus(field(row, "status")),
			Outcome:        field(row, "outcome"),
		}
		for _, name := range FactorNames {
			if v := parseScore(field(row, name+"_score")); v != nil {
				if rec.FactorScores == nil {
					rec.FactorScores = map[string]int{}
				}
				rec.FactorScores[name] = *v
			}
		}
		t.Upsert(rec)
	}
	return t, nil
}

// Save overwrites the facility's file with the full table.
func (s *CSVStore) Save(_ context.Context, facilityID string, t *Table) error {
	data, err := EncodeCSV(t, "")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(facilityID), data, 0o644); err != nil {
		return fmt.Errorf("save facility %s: %w", facilityID, err)
	}
	return nil
}

// EncodeCSV renders a table in the persisted format. A non-empty
// facilityID prepends a facility_id column, the shape used by the
// cross-facility archive export.
func EncodeCSV(t *Table, facilityID string) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := Columns
	if facilityID != "" {
		header = append([]string{"facility_id"}, Columns...)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range t.Records() {
		row := EncodeRow(rec)
		if facilityID != "" {
			row = append([]string{facilityID}, row...)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return []byte(sb.String()), nil
}

// Facilities lists every facility that has a record file.
func (s *CSVStore) Facilities(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	return out, nil
}

// EncodeRow renders one record as a persisted-format row, column order
// per Columns.
func EncodeRow(rec *ScoreRecord) []string {
	row := []string{
		rec.PatientID,
		rec.Date.String(),
		string(rec.Slot),
		formatScore(rec.CompositeScore),
	}
	for _, name := range FactorNames {
		if v, ok := rec.FactorScores[name]; ok {
			row = append(row, strconv.Itoa(v))
		} else {
			row = append(row, "")
		}
	}
	return append(row,
		events.JoinList(rec.Events),
		string(rec.Status),
		rec.DiseaseGroup,
		rec.Outcome,
	)
}

func formatScore(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// parseScore tolerates legacy float renderings ("55.0") and returns nil
// for anything non-numeric.
func parseScore(s string) *int {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}
