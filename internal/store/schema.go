package store

import (
	"database/sql"
	"strconv"
)

const schemaVersion = 1

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS diseases (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name_key TEXT NOT NULL UNIQUE,
  name_en TEXT NOT NULL,
  name_hi TEXT NOT NULL DEFAULT '',
  description_en TEXT NOT NULL DEFAULT '',
  description_hi TEXT NOT NULL DEFAULT '',
  symptoms_en TEXT NOT NULL DEFAULT '',
  symptoms_hi TEXT NOT NULL DEFAULT '',
  treatment_en TEXT NOT NULL DEFAULT '',
  treatment_hi TEXT NOT NULL DEFAULT '',
  prevention_en TEXT NOT NULL DEFAULT '',
  prevention_hi TEXT NOT NULL DEFAULT '',
  crop_type TEXT NOT NULL DEFAULT '',
  severity_level TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  created_at_unix_ms INTEGER NOT NULL,
  updated_at_unix_ms INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_diseases_crop_type ON diseases(crop_type);`,
		`CREATE TABLE IF NOT EXISTS scans (
  scan_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  plant_part TEXT NOT NULL DEFAULT '',
  prediction_result TEXT NOT NULL,
  confidence_score REAL NOT NULL,
  created_at_unix_ms INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans(user_id, created_at_unix_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', ?)`, strconv.Itoa(schemaVersion))
	return err
}

// SchemaVersion reports the version recorded in the meta table.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow(`SELECT CAST(value AS INTEGER) FROM meta WHERE key = 'schema_version'`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
