package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/leadfindr/internal/model"
)

// BusinessStorage caches fetched business sets per scope so listings
// and exports keep working offline.
type BusinessStorage struct {
	db *DB
}

// NewBusinessStorage creates a new business cache handler.
func NewBusinessStorage(db *DB) *BusinessStorage {
	return &BusinessStorage{db: db}
}

// ReplaceScope atomically swaps the cached set for one scope. total is
// nil for scopes whose fetch carries no count.
func (s *BusinessStorage) ReplaceScope(scope, key string, businesses []model.Business, total *int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cached_businesses WHERE scope = ? AND scope_key = ?`, scope, key); err != nil {
		return fmt.Errorf("failed to clear scope: %w", err)
	}

	insert := `INSERT INTO cached_businesses
			   (scope, scope_key, place_id, name, record_json, dpi_score, city, category)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, b := range businesses {
		record, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode business %s: %w", b.PlaceID, err)
		}
		if _, err := tx.Exec(insert, scope, key, b.PlaceID, b.Name, string(record), b.DPIScore, b.City, b.Category); err != nil {
			return fmt.Errorf("failed to cache business %s: %w", b.PlaceID, err)
		}
	}

	meta := `INSERT INTO cache_meta (scope, scope_key, total, fetched_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(scope, scope_key) DO UPDATE SET
			 total = excluded.total,
			 fetched_at = excluded.fetched_at`
	var totalVal interface{}
	if total != nil {
		totalVal = *total
	}
	if _, err := tx.Exec(meta, scope, key, totalVal, time.Now()); err != nil {
		return fmt.Errorf("failed to record cache meta: %w", err)
	}

	return tx.Commit()
}

// GetScope returns the cached set and its meta, or nil meta when the
// scope was never cached.
func (s *BusinessStorage) GetScope(scope, key string) ([]model.Business, *model.CacheMeta, error) {
	var businesses []model.Business
	var meta *model.CacheMeta

	err := s.db.WithRLock(func() error {
		metaQuery := `SELECT total, fetched_at FROM cache_meta WHERE scope = ? AND scope_key = ?`

		m := &model.CacheMeta{Scope: scope, Key: key}
		var total sql.NullInt64
		err := s.db.QueryRow(metaQuery, scope, key).Scan(&total, &m.FetchedAt)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read cache meta: %w", err)
		}
		if total.Valid {
			t := int(total.Int64)
			m.Total = &t
		}
		meta = m

		rows, err := s.db.Query(
			`SELECT record_json FROM cached_businesses WHERE scope = ? AND scope_key = ? ORDER BY name`,
			scope, key)
		if err != nil {
			return fmt.Errorf("failed to query cached businesses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var record string
			if err := rows.Scan(&record); err != nil {
				return fmt.Errorf("failed to scan cached business: %w", err)
			}
			var b model.Business
			if err := json.Unmarshal([]byte(record), &b); err != nil {
				continue
			}
			businesses = append(businesses, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return businesses, meta, nil
}

// CountByScope returns the cached record count for a scope.
func (s *BusinessStorage) CountByScope(scope, key string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM cached_businesses WHERE scope = ? AND scope_key = ?`,
		scope, key).Scan(&count)
	return count, err
}

// ClearScope drops one scope's cached set and meta.
func (s *BusinessStorage) ClearScope(scope, key string) error {
	return s.db.WithLock(func() error {
		if _, err := s.db.Exec(`DELETE FROM cached_businesses WHERE scope = ? AND scope_key = ?`, scope, key); err != nil {
			return fmt.Errorf("failed to clear cached businesses: %w", err)
		}
		if _, err := s.db.Exec(`DELETE FROM cache_meta WHERE scope = ? AND scope_key = ?`, scope, key); err != nil {
			return fmt.Errorf("failed to clear cache meta: %w", err)
		}
		return nil
	})
}
