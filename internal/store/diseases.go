package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"yashubustudio/cropdoctor/diagnosis"
)

// DiseaseFilter narrows ListDiseases.
type DiseaseFilter struct {
	// Search matches English name, Hindi name or crop type, case-insensitively.
	Search   string
	CropType string
	Severity string
	Limit    int
	Offset   int
}

const diseaseColumns = `id, name_en, name_hi, description_en, description_hi,
  symptoms_en, symptoms_hi, treatment_en, treatment_hi,
  prevention_en, prevention_hi, crop_type, severity_level, image_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisease(row rowScanner) (diagnosis.DiseaseRecord, error) {
	var r diagnosis.DiseaseRecord
	err := row.Scan(
		&r.ID,
		&r.NameEN,
		&r.NameHI,
		&r.DescriptionEN,
		&r.DescriptionHI,
		&r.SymptomsEN,
		&r.SymptomsHI,
		&r.TreatmentEN,
		&r.TreatmentHI,
		&r.PreventionEN,
		&r.PreventionHI,
		&r.CropType,
		&r.SeverityLevel,
		&r.ImageURL,
	)
	return r, err
}

// AllDiseaseRecords returns every stored record. It makes the store usable as
// the engine's knowledge provider.
func (s *Store) AllDiseaseRecords(ctx context.Context) ([]diagnosis.DiseaseRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+diseaseColumns+` FROM diseases ORDER BY name_en ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []diagnosis.DiseaseRecord
	for rows.Next() {
		r, err := scanDisease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDiseases returns records matching f ordered by English name.
func (s *Store) ListDiseases(ctx context.Context, f DiseaseFilter) ([]diagnosis.DiseaseRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialized")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, `(name_en LIKE ? OR name_hi LIKE ? OR crop_type LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	if c := strings.TrimSpace(f.CropType); c != "" {
		where = append(where, `crop_type = ?`)
		args = append(args, c)
	}
	if sev := strings.TrimSpace(f.Severity); sev != "" {
		where = append(where, `severity_level = ?`)
		args = append(args, sev)
	}

	query := `SELECT ` + diseaseColumns + ` FROM diseases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY name_en ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]diagnosis.DiseaseRecord, 0)
	for rows.Next() {
		r, err := scanDisease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetDisease looks a record up by label or English name.
func (s *Store) GetDisease(ctx context.Context, name string) (diagnosis.DiseaseRecord, error) {
	if s == nil || s.db == nil {
		return diagnosis.DiseaseRecord{}, errors.New("store not initialized")
	}
	key := diagnosis.LookupKey(name)
	if key == "" {
		return diagnosis.DiseaseRecord{}, ErrNotFound
	}
	r, err := scanDisease(s.db.QueryRowContext(ctx, `SELECT `+diseaseColumns+` FROM diseases WHERE name_key = ?`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return diagnosis.DiseaseRecord{}, ErrNotFound
		}
		return diagnosis.DiseaseRecord{}, err
	}
	return r, nil
}

// CreateDisease inserts a new record and returns it with its assigned id.
func (s *Store) CreateDisease(ctx context.Context, rec diagnosis.DiseaseRecord) (diagnosis.DiseaseRecord, error) {
	if s == nil || s.db == nil {
		return diagnosis.DiseaseRecord{}, errors.New("store not initialized")
	}
	key := rec.Key()
	if key == "" {
		return diagnosis.DiseaseRecord{}, errors.New("missing name_en")
	}
	now := s.nowUnixMs()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO diseases(
  name_key, name_en, name_hi, description_en, description_hi,
  symptoms_en, symptoms_hi, treatment_en, treatment_hi,
  prevention_en, prevention_hi, crop_type, severity_level, image_url,
  created_at_unix_ms, updated_at_unix_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, key, rec.NameEN, rec.NameHI, rec.DescriptionEN, rec.DescriptionHI,
		rec.SymptomsEN, rec.SymptomsHI, rec.TreatmentEN, rec.TreatmentHI,
		rec.PreventionEN, rec.PreventionHI, rec.CropType, rec.SeverityLevel, rec.ImageURL,
		now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return diagnosis.DiseaseRecord{}, fmt.Errorf("%w: %s", ErrDuplicate, rec.NameEN)
		}
		return diagnosis.DiseaseRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return diagnosis.DiseaseRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

// UpsertDiseases inserts or replaces records keyed by English name in one
// transaction and returns how many were written.
func (s *Store) UpsertDiseases(ctx context.Context, records []diagnosis.DiseaseRecord) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO diseases(
  name_key, name_en, name_hi, description_en, description_hi,
  symptoms_en, symptoms_hi, treatment_en, treatment_hi,
  prevention_en, prevention_hi, crop_type, severity_level, image_url,
  created_at_unix_ms, updated_at_unix_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name_key) DO UPDATE SET
  name_en = excluded.name_en,
  name_hi = excluded.name_hi,
  description_en = excluded.description_en,
  description_hi = excluded.description_hi,
  symptoms_en = excluded.symptoms_en,
  symptoms_hi = excluded.symptoms_hi,
  treatment_en = excluded.treatment_en,
  treatment_hi = excluded.treatment_hi,
  prevention_en = excluded.prevention_en,
  prevention_hi = excluded.prevention_hi,
  crop_type = excluded.crop_type,
  severity_level = excluded.severity_level,
  image_url = excluded.image_url,
  updated_at_unix_ms = excluded.updated_at_unix_ms
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := s.nowUnixMs()
	n := 0
	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, key, rec.NameEN, rec.NameHI, rec.DescriptionEN, rec.DescriptionHI,
			rec.SymptomsEN, rec.SymptomsHI, rec.TreatmentEN, rec.TreatmentHI,
			rec.PreventionEN, rec.PreventionHI, rec.CropType, rec.SeverityLevel, rec.ImageURL,
			now, now); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", rec.NameEN, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
