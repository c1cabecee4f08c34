package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"yashubustudio/cropdoctor/diagnosis"
)

// Scan is a persisted diagnosis of one uploaded image.
type Scan struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	ImageURL   string           `json:"image_url"`
	PlantPart  string           `json:"plant_part"`
	Result     diagnosis.Result `json:"prediction_result"`
	Confidence float64          `json:"confidence_score"`
	CreatedAt  time.Time        `json:"created_at"`
}

// SaveScan stores scan, assigning an id and creation time when missing.
func (s *Store) SaveScan(ctx context.Context, scan Scan) (Scan, error) {
	if s == nil || s.db == nil {
		return Scan{}, errors.New("store not initialized")
	}
	scan.UserID = strings.TrimSpace(scan.UserID)
	if scan.UserID == "" {
		return Scan{}, errors.New("missing user id")
	}
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = s.now()
	}
	payload, err := json.Marshal(scan.Result)
	if err != nil {
		return Scan{}, fmt.Errorf("encode prediction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO scans(scan_id, user_id, image_url, plant_part, prediction_result, confidence_score, created_at_unix_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, scan.ID, scan.UserID, scan.ImageURL, scan.PlantPart, string(payload), scan.Confidence, scan.CreatedAt.UnixMilli())
	if err != nil {
		return Scan{}, err
	}
	return scan, nil
}

// ListScans returns a user's scans, newest first.
func (s *Store) ListScans(ctx context.Context, userID string, limit, offset int) ([]Scan, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT scan_id, user_id, image_url, plant_part, prediction_result, confidence_score, created_at_unix_ms
FROM scans
WHERE user_id = ?
ORDER BY created_at_unix_ms DESC, rowid DESC
LIMIT ? OFFSET ?
`, strings.TrimSpace(userID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Scan, 0)
	for rows.Next() {
		var (
			sc      Scan
			payload string
			created int64
		)
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ImageURL, &sc.PlantPart, &payload, &sc.Confidence, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &sc.Result); err != nil {
			return nil, fmt.Errorf("decode scan %s: %w", sc.ID, err)
		}
		sc.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetScan fetches one scan owned by userID.
func (s *Store) GetScan(ctx context.Context, userID, scanID string) (Scan, error) {
	if s == nil || s.db == nil {
		return Scan{}, errors.New("store not initialized")
	}
	var (
		sc      Scan
		payload string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT scan_id, user_id, image_url, plant_part, prediction_result, confidence_score, created_at_unix_ms
FROM scans
WHERE scan_id = ? AND user_id = ?
`, strings.TrimSpace(scanID), strings.TrimSpace(userID)).Scan(&sc.ID, &sc.UserID, &sc.ImageURL, &sc.PlantPart, &payload, &sc.Confidence, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scan{}, ErrNotFound
		}
		return Scan{}, err
	}
	if err := json.Unmarshal([]byte(payload), &sc.Result); err != nil {
		return Scan{}, fmt.Errorf("decode scan %s: %w", sc.ID, err)
	}
	sc.CreatedAt = time.UnixMilli(created).UTC()
	return sc, nil
}

// DeleteScan removes one scan owned by userID.
func (s *Store) DeleteScan(ctx context.Context, userID, scanID string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE scan_id = ? AND user_id = ?`,
		strings.TrimSpace(scanID), strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
