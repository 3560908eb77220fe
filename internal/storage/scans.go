package storage

import (
	"database/sql"
	"fmt"

	"github.com/user/leadfindr/internal/model"
)

// ScanHistoryStorage mirrors the backend's scan history locally.
type ScanHistoryStorage struct {
	db *DB
}

// NewScanHistoryStorage creates a new scan history handler.
func NewScanHistoryStorage(db *DB) *ScanHistoryStorage {
	return &ScanHistoryStorage{db: db}
}

// Save stores or updates one history entry.
func (s *ScanHistoryStorage) Save(entry model.ScanHistoryEntry) error {
	query := `INSERT INTO scan_history
			  (scan_id, region_type, region_slug, city, state, country, status,
			   business_count, dpi_avg, duration_seconds, error_message, timestamp)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(scan_id) DO UPDATE SET
			  status = excluded.status,
			  business_count = excluded.business_count,
			  dpi_avg = excluded.dpi_avg,
			  duration_seconds = excluded.duration_seconds,
			  error_message = excluded.error_message,
			  timestamp = excluded.timestamp`

	var dpiAvg interface{}
	if entry.DPIAvg != nil {
		dpiAvg = *entry.DPIAvg
	}
	_, err := s.db.Exec(query,
		entry.ScanID, entry.RegionType, entry.RegionSlug,
		entry.City, entry.State, entry.Country, entry.Status,
		entry.BusinessCount, dpiAvg, entry.DurationSeconds,
		entry.ErrorMessage, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save scan history entry: %w", err)
	}
	return nil
}

// SaveAll replaces nothing and upserts every entry; the backend stays
// the source of truth, this is only a mirror.
func (s *ScanHistoryStorage) SaveAll(entries []model.ScanHistoryEntry) error {
	for _, e := range entries {
		if err := s.Save(e); err != nil {
			return err
		}
	}
	return nil
}

// List returns entries newest first, up to limit (0 means all).
func (s *ScanHistoryStorage) List(limit int) ([]model.ScanHistoryEntry, error) {
	query := `SELECT scan_id, region_type, region_slug, city, state, country, status,
			  business_count, dpi_avg, duration_seconds, error_message, timestamp
			  FROM scan_history ORDER BY timestamp DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var entries []model.ScanHistoryEntry
	for rows.Next() {
		var e model.ScanHistoryEntry
		var dpiAvg sql.NullFloat64
		var errMsg sql.NullString

		if err := rows.Scan(
			&e.ScanID, &e.RegionType, &e.RegionSlug,
			&e.City, &e.State, &e.Country, &e.Status,
			&e.BusinessCount, &dpiAvg, &e.DurationSeconds,
			&errMsg, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if dpiAvg.Valid {
			v := dpiAvg.Float64
			e.DPIAvg = &v
		}
		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get returns one entry by scan id, or nil when unknown.
func (s *ScanHistoryStorage) Get(scanID string) (*model.ScanHistoryEntry, error) {
	query := `SELECT scan_id, region_type, region_slug, city, state, country, status,
			  business_count, dpi_avg, duration_seconds, error_message, timestamp
			  FROM scan_history WHERE scan_id = ?`

	var e model.ScanHistoryEntry
	var dpiAvg sql.NullFloat64
	var errMsg sql.NullString

	err := s.db.QueryRow(query, scanID).Scan(
		&e.ScanID, &e.RegionType, &e.RegionSlug,
		&e.City, &e.State, &e.Country, &e.Status,
		&e.BusinessCount, &dpiAvg, &e.DurationSeconds,
		&errMsg, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history entry: %w", err)
	}

	if dpiAvg.Valid {
		v := dpiAvg.Float64
		e.DPIAvg = &v
	}
	if errMsg.Valid {
		e.ErrorMessage = errMsg.String
	}
	return &e, nil
}
