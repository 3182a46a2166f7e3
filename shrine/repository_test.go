// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qingshui/landgods/spatial"
)

func setupTestDB(t *testing.T) (*sql.DB, RecordStore) {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)

	store := NewDuckDBRecordStore(db)
	require.NoError(t, store.CreateSchema())

	return db, store
}

func TestCreateSchema(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()

	var tableName string

	err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = 'land_gods'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "land_gods", tableName)
}

func TestCreateIfAbsentRoundtrip(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	rec := &Record{
		ImageURL:  "https://photos.test/p1.jpg",
		Point:     spatial.Point{Lat: 24.4001, Lng: 120.6501},
		Note:      "巷口的小廟",
		Nickname:  "阿明",
		Area:      "清水里",
		Source:    SourceUpload,
		CreatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}

	created, err := store.CreateIfAbsent(rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, rec.ID)

	all, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, rec.ImageURL, got.ImageURL)
	assert.InDelta(t, 24.4001, got.Point.Lat, 1e-9)
	assert.InDelta(t, 120.6501, got.Point.Lng, 1e-9)
	assert.Equal(t, "巷口的小廟", got.Note)
	assert.Equal(t, "阿明", got.Nickname)
	assert.Equal(t, "清水里", got.Area)
	assert.Equal(t, SourceUpload, got.Source)
}

func TestCreateIfAbsentSameURLTwice(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	rec := func() *Record {
		return &Record{
			ImageURL: "https://photos.test/p1.jpg",
			Point:    spatial.Point{Lat: 24.40, Lng: 120.65},
			Area:     "清水里",
			Source:   SourceUpload,
		}
	}

	created, err := store.CreateIfAbsent(rec())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateIfAbsent(rec())
	require.NoError(t, err)
	assert.False(t, created, "the same image URL must not create a second record")

	count, err := store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateIfAbsentRejectsInvalid(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	_, err := store.CreateIfAbsent(&Record{
		ImageURL: "https://photos.test/p1.jpg",
		Point:    spatial.Point{Lat: 91, Lng: 120.65},
		Area:     "清水里",
		Source:   SourceUpload,
	})
	assert.Error(t, err)
}

func TestListCoordinatesStoresCells(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	point := spatial.Point{Lat: 24.4001, Lng: 120.6501}

	_, err := store.CreateIfAbsent(&Record{
		ImageURL: "https://photos.test/p1.jpg",
		Point:    point,
		Area:     "清水里",
		Source:   SourceUpload,
	})
	require.NoError(t, err)

	points, err := store.ListCoordinates()
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.InDelta(t, point.Lat, points[0].Point.Lat, 1e-9)
	assert.InDelta(t, point.Lng, points[0].Point.Lng, 1e-9)

	expected, err := CellFor(point)
	require.NoError(t, err)
	assert.Equal(t, expected, points[0].Cell)
}

func TestDeleteByID(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	rec := &Record{
		ImageURL: "https://photos.test/p1.jpg",
		Point:    spatial.Point{Lat: 24.40, Lng: 120.65},
		Area:     "清水里",
		Source:   SourceUpload,
	}

	created, err := store.CreateIfAbsent(rec)
	require.NoError(t, err)
	require.True(t, created)

	deleted, err := store.DeleteByID(rec.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByID(rec.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing record reports false")

	count, err := store.CountRecords()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListAllOrderedByID(t *testing.T) {
	db, store := setupTestDB(t)
	defer db.Close()

	urls := []string{
		"https://photos.test/p1.jpg",
		"https://photos.test/p2.jpg",
		"https://photos.test/p3.jpg",
	}

	for _, u := range urls {
		_, err := store.CreateIfAbsent(&Record{
			ImageURL: u,
			Point:    spatial.Point{Lat: 24.40, Lng: 120.65},
			Area:     "清水里",
			Source:   SourceUpload,
		})
		require.NoError(t, err)
	}

	all, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i, rec := range all {
		assert.Equal(t, urls[i], rec.ImageURL)

		if i > 0 {
			assert.Greater(t, rec.ID, all[i-1].ID)
		}
	}
}
