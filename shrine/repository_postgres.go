// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/qingshui/landgods/spatial"
)

// postgresRecordStore is the networked backend, selected by DATABASE_URL.
// The schema keeps the original deployment's flat lat/lng columns so
// existing databases keep working; the extra columns are additive.
type postgresRecordStore struct {
	db *sql.DB
}

// NewPostgresRecordStore creates the networked record store.
func NewPostgresRecordStore(db *sql.DB) RecordStore {
	return &postgresRecordStore{db: db}
}

func (s *postgresRecordStore) DB() *sql.DB {
	return s.db
}

func (s *postgresRecordStore) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS land_gods (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			image_url TEXT NOT NULL UNIQUE,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			nickname TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'upload',
			h3_res8 BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (s *postgresRecordStore) CreateIfAbsent(rec *Record) (bool, error) {
	if err := validateRecord(rec); err != nil {
		return false, err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	cell, cellErr := CellFor(rec.Point)
	if cellErr != nil {
		cell = 0
	}

	// ON CONFLICT DO NOTHING makes the insert atomic under concurrent
	// rescues; no row returned means the URL was already recorded.
	err := s.db.QueryRow(`
		INSERT INTO land_gods(image_url, lat, lng, note, nickname, area, source, h3_res8, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (image_url) DO NOTHING
		RETURNING id
	`,
		rec.ImageURL,
		rec.Point.Lat,
		rec.Point.Lng,
		rec.Note,
		rec.Nickname,
		rec.Area,
		rec.Source,
		int64(cell),
		rec.CreatedAt,
	).Scan(&rec.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("inserting record: %w", err)
	}

	return true, nil
}

func (s *postgresRecordStore) list(query string, args []any) ([]*Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		rec := &Record{}

		var cell sql.NullInt64

		err := rows.Scan(
			&rec.ID,
			&rec.ImageURL,
			&rec.Point.Lat,
			&rec.Point.Lng,
			&rec.Note,
			&rec.Nickname,
			&rec.Area,
			&rec.Source,
			&cell,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *postgresRecordStore) ListAll() ([]*Record, error) {
	return s.list(`
		SELECT id, image_url, lat, lng, note, nickname, area, source, h3_res8, created_at
		FROM land_gods
		ORDER BY id
	`, nil)
}

func (s *postgresRecordStore) ListCoordinates() ([]LocatedPoint, error) {
	rows, err := s.db.Query(`SELECT lat, lng, h3_res8 FROM land_gods`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []LocatedPoint

	for rows.Next() {
		var (
			p    spatial.Point
			cell sql.NullInt64
		)

		if err := rows.Scan(&p.Lat, &p.Lng, &cell); err != nil {
			return nil, err
		}

		points = append(points, LocatedPoint{
			Point: p,
			Cell:  h3.Cell(cell.Int64),
		})
	}

	return points, rows.Err()
}

func (s *postgresRecordStore) DeleteByID(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM land_gods WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (s *postgresRecordStore) CountRecords() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM land_gods`).Scan(&count)

	return count, err
}
