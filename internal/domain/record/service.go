package record

import (
	"context"
	"fmt"
)

// Service orchestrates record entry and patient lifecycle against the
// whole-table store. It is stateless: every call loads the facility's
// current table, transforms it and saves it back, inheriting the store's
// last-write-wins contract.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Table returns the facility's full table.
func (s *Service) Table(ctx context.Context, facilityID string) (*Table, error) {
	return s.repo.Load(ctx, facilityID)
}

// History returns one patient's ordered record sequence.
func (s *Service) History(ctx context.Context, facilityID, patientID string) ([]*ScoreRecord, error) {
	t, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	return t.Patient(patientID), nil
}

// Patients lists patient IDs by status; an empty status lists everyone.
func (s *Service) Patients(ctx context.Context, facilityID string, status Status) ([]string, error) {
	t, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	return t.PatientIDs(status), nil
}

// Upsert validates and stores one record, replacing any record with the
// same (patient, date, slot) key.
func (s *Service) Upsert(ctx context.Context, facilityID string, rec *ScoreRecord) error {
	if rec.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if !rec.Slot.Valid() {
		return fmt.Errorf("time_slot must be %s or %s", SlotAM, SlotPM)
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}

	t, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return err
	}
	// A patient's status lives on all their rows; a new row follows suit.
	if existing := t.Patient(rec.PatientID); len(existing) > 0 {
		rec.Status = existing[len(existing)-1].Status
	}
	t.Upsert(rec)
	return s.repo.Save(ctx, facilityID, t)
}

// Archive marks the patient as discharged, recording the outcome.
func (s *Service) Archive(ctx context.Context, facilityID, patientID, outcome string) error {
	return s.setStatus(ctx, facilityID, patientID, StatusArchived, outcome)
}

// Reactivate returns an archived patient to active. Archival is not
// terminal; reversing it clears the outcome.
func (s *Service) Reactivate(ctx context.Context, facilityID, patientID string) error {
	return s.setStatus(ctx, facilityID, patientID, StatusActive, "")
}

func (s *Service) setStatus(ctx context.Context, facilityID, patientID string, status Status, outcome string) error {
	t, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return err
	}
	if t.SetStatus(patientID, status, outcome) == 0 {
		return fmt.Errorf("patient %s has no records", patientID)
	}
	return s.repo.Save(ctx, facilityID, t)
}

// Facilities lists every facility known to the store.
func (s *Service) Facilities(ctx context.Context) ([]string, error) {
	return s.repo.Facilities(ctx)
}

// ArchivedByFacility gathers every facility's archived records, keyed by
// facility, for the cross-facility export.
func (s *Service) ArchivedByFacility(ctx context.Context) (map[string]*Table, error) {
	facilities, err := s.repo.Facilities(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]*Table{}
	for _, f := range facilities {
		t, err := s.repo.Load(ctx, f)
		if err != nil {
			return nil, err
		}
		archived := t.FilterStatus(StatusArchived)
		if archived.Len() > 0 {
			out[f] = archived
		}
	}
	return out, nil
}
