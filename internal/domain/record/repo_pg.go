package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trajectory/trajectory/internal/domain/events"
)

// PGStore is the Postgres-backed Repository. Save still replaces the
// facility's entire table inside one transaction, so the observable
// contract is identical to the flat-file store: last full-table write
// wins, no merge.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates the store. EnsureSchema must have been run once.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the score_record table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS score_record (
			id                           UUID PRIMARY KEY,
			facility_id                  TEXT NOT NULL,
			patient_id                   TEXT NOT NULL,
			record_date                  DATE,
			time_slot                    TEXT NOT NULL,
			composite_score              INT,
			circulation_score            INT,
			respiration_score            INT,
			consciousness_sedation_score INT,
			renal_fluid_score            INT,
			activity_rehab_score         INT,
			nutrition_gi_score           INT,
			infection_inflammation_score INT,
			events                       TEXT NOT NULL DEFAULT '',
			status                       TEXT NOT NULL,
			disease_group                TEXT NOT NULL DEFAULT '',
			outcome                      TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS score_record_facility_idx
			ON score_record (facility_id, patient_id, record_date, time_slot);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const pgCols = `patient_id, record_date, time_slot, composite_score,
	circulation_score, respiration_score, consciousness_sedation_score,
	renal_fluid_score, activity_rehab_score, nutrition_gi_score,
	infection_inflammation_score, events, status, disease_group, outcome`

// Load reads a facility's table.
func (s *PGStore) Load(ctx context.Context, facilityID string) (*Table, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgCols+`
		FROM score_record
		WHERE facility_id = $1
		ORDER BY patient_id, record_date, time_slot`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %s: %w", facilityID, err)
	}
	defer rows.Close()

	t := NewTable()
	for rows.Next() {
		var (
			rec       ScoreRecord
			date      *time.Time
			slot      string
			status    string
			eventsStr string
			factors   [7]*int
		)
		if err := rows.Scan(
			&rec.PatientID, &date, &slot, &rec.CompositeScore,
			&factors[0], &factors[1], &factors[2], &factors[3],
			&factors[4], &factors[5], &factors[6],
			&eventsStr, &status, &rec.DiseaseGroup, &rec.Outcome,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if date != nil {
			rec.Date = Date{time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)}
		}
		rec.Slot = ParseSlot(slot)
		rec.Status = ParseStatus(status)
		rec.Events = events.ParseList(eventsStr)
		for i, name := range FactorNames {
			if factors[i] != nil {
				if rec.FactorScores == nil {
					rec.FactorScores = map[string]int{}
				}
				rec.FactorScores[name] = *factors[i]
			}
		}
		t.Upsert(&rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load facility %s: %w", facilityID, err)
	}
	return t, nil
}

// Save replaces the facility's rows wholesale.
func (s *PGStore) Save(ctx context.Context, facilityID string, t *Table) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM score_record WHERE facility_id = $1`, facilityID); err != nil {
		return fmt.Errorf("clear facility %s: %w", facilityID, err)
	}

	for _, rec := range t.Records() {
		var date *time.Time
		if !rec.Date.IsZero() {
			d := rec.Date.Time
			date = &d
		}
		factors := make([]*int, len(FactorNames))
		for i, name := range FactorNames {
			if v, ok := rec.FactorScores[name]; ok {
				v := v
				factors[i] = &v
			}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO score_record (id, facility_id, `+pgCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
			uuid.New(), facilityID,
			rec.PatientID, date, string(rec.Slot), rec.CompositeScore,
			factors[0], factors[1], factors[2], factors[3],
			factors[4], factors[5], factors[6],
			events.JoinList(rec.Events), string(rec.Status), rec.DiseaseGroup, rec.Outcome,
		); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Facilities lists every facility with at least one row.
func (s *PGStore) Facilities(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT facility_id FROM score_record ORDER BY facility_id`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
