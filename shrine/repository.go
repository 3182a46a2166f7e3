// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/qingshui/landgods/spatial"
)

// RecordStore handles persistence of shrine records. Both backends
// (embedded DuckDB, networked Postgres) implement it; the core never
// branches on which one is behind the interface.
type RecordStore interface {
	// CreateSchema creates the land_gods table
	CreateSchema() error

	// CreateIfAbsent inserts the record unless one with the same image
	// URL already exists. It reports whether a row was created, and
	// assigns ID and CreatedAt on creation. Image-URL uniqueness is
	// enforced by the store so concurrent rescues stay idempotent.
	CreateIfAbsent(rec *Record) (bool, error)

	// ListAll returns every record ordered by id
	ListAll() ([]*Record, error)

	// ListCoordinates returns the accepted coordinates with their
	// stored H3 cells, for the duplicate check
	ListCoordinates() ([]LocatedPoint, error)

	// DeleteByID permanently removes one record
	DeleteByID(id int64) (bool, error)

	// CountRecords returns the total number of records
	CountRecords() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type duckdbRecordStore struct {
	db *sql.DB
}

// NewDuckDBRecordStore creates the embedded record store.
func NewDuckDBRecordStore(db *sql.DB) RecordStore {
	return &duckdbRecordStore{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (s *duckdbRecordStore) DB() *sql.DB {
	return s.db
}

func (s *duckdbRecordStore) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := s.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS land_gods_seq START 1;

		CREATE TABLE IF NOT EXISTS land_gods (
			id BIGINT PRIMARY KEY DEFAULT nextval('land_gods_seq'),
			image_url VARCHAR NOT NULL UNIQUE,
			point POINT_2D NOT NULL,
			note TEXT NOT NULL,
			nickname VARCHAR NOT NULL,
			area VARCHAR NOT NULL,
			source VARCHAR NOT NULL DEFAULT 'upload',
			h3_res8 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (s *duckdbRecordStore) CreateIfAbsent(rec *Record) (bool, error) {
	if err := validateRecord(rec); err != nil {
		return false, err
	}

	// Check-and-insert; the UNIQUE constraint backstops the race between
	// the check and the insert.
	var existingID int64

	err := s.db.QueryRow(`SELECT id FROM land_gods WHERE image_url = ?`, rec.ImageURL).Scan(&existingID)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("checking for existing record: %w", err)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	cell, cellErr := CellFor(rec.Point)
	if cellErr != nil {
		cell = 0
	}

	err = s.db.QueryRow(`
		INSERT INTO land_gods(image_url, point, note, nickname, area, source, h3_res8, created_at)
		VALUES (?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		rec.ImageURL,
		rec.Point.Lng,
		rec.Point.Lat,
		rec.Note,
		rec.Nickname,
		rec.Area,
		rec.Source,
		int64(cell),
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if isConstraintViolation(err) {
			return false, nil
		}

		return false, fmt.Errorf("inserting record: %w", err)
	}

	return true, nil
}

func isConstraintViolation(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "constraint") || strings.Contains(msg, "duplicate key")
}

var duckdbBaseSelect = `
	SELECT id, image_url, point, note, nickname, area, source, h3_res8, created_at
	FROM land_gods
`

func (s *duckdbRecordStore) list(query string, args []any) ([]*Record, error) {
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
			&rec.Point,
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

func (s *duckdbRecordStore) ListAll() ([]*Record, error) {
	return s.list(duckdbBaseSelect+` ORDER BY id`, nil)
}

func (s *duckdbRecordStore) ListCoordinates() ([]LocatedPoint, error) {
	rows, err := s.db.Query(`SELECT point, h3_res8 FROM land_gods`)
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

		if err := rows.Scan(&p, &cell); err != nil {
			return nil, err
		}

		points = append(points, LocatedPoint{
			Point: p,
			Cell:  h3.Cell(cell.Int64),
		})
	}

	return points, rows.Err()
}

func (s *duckdbRecordStore) DeleteByID(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM land_gods WHERE id = ?`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (s *duckdbRecordStore) CountRecords() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM land_gods`).Scan(&count)

	return count, err
}
