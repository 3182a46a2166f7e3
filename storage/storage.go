// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage abstracts the photo host. The photo host is the system
// of record: every accepted submission lives there first, and the rescue
// flow rebuilds database records from it.
package storage

import (
	"context"
	"time"
)

// Metadata is the opaque key/value attachment written at upload time and
// read back when listing. The pipeline writes lat, lng, note and
// nickname; an area key is honored when present (photos uploaded outside
// the pipeline) but never written by it, since place resolution runs
// after the upload.
type Metadata map[string]string

// UploadResult identifies a stored photo.
type UploadResult struct {
	URL       string
	CreatedAt time.Time
}

// Object is one stored photo as reported by a listing.
type Object struct {
	URL       string
	Metadata  Metadata
	CreatedAt time.Time
}

// ObjectStore is the narrow contract the core consumes. Uploads attach
// metadata; listings return it so records can be rebuilt.
type ObjectStore interface {
	Upload(ctx context.Context, photo []byte, meta Metadata) (*UploadResult, error)
	List(ctx context.Context, limit int) ([]*Object, error)
}
