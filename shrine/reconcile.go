// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/qingshui/landgods/spatial"
	"github.com/qingshui/landgods/storage"
)

// ReconcileReport summarizes one rescue run.
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Recovered int `json:"recovered"`
	Skipped   int `json:"skipped"`
}

// Reconciler rebuilds database records from the photo host when the two
// diverge (a record write failed after an upload, or the database was
// recreated). Running it repeatedly recovers each photo at most once:
// the image-URL existence check in the store is the sole mechanism, so
// URL uniqueness is load-bearing.
type Reconciler struct {
	records  RecordStore
	objects  storage.ObjectStore
	sentinel string
	pageSize int
}

// NewReconciler creates a reconciler over the given collaborators.
func NewReconciler(cfg *Config, records RecordStore, objects storage.ObjectStore) *Reconciler {
	return &Reconciler{
		records:  records,
		objects:  objects,
		sentinel: cfg.SentinelPlace(),
		pageSize: cfg.RescuePageSize,
	}
}

// Reconcile lists the photo host and re-creates any record missing from
// the store. progress, when non-nil, is called once per scanned object.
// Records created here keep whatever coordinates the photo metadata
// carries, even outside the current fence: legacy photos predate it.
func (r *Reconciler) Reconcile(ctx context.Context, progress func(done int)) (*ReconcileReport, error) {
	objects, err := r.objects.List(ctx, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing photo host: %w", err)
	}

	report := &ReconcileReport{}

	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Scanned++

		rec, err := r.recordFromObject(obj)
		if err != nil {
			log.Printf("skipping %s: %v", obj.URL, err)

			report.Skipped++

			if progress != nil {
				progress(i + 1)
			}

			continue
		}

		created, err := r.records.CreateIfAbsent(rec)
		if err != nil {
			// A record that fails validation fails it on every run; count
			// it as skipped so one bad object can't wedge recovery of the
			// rest. Store failures still abort.
			if errors.Is(err, ErrInvalidRecord) {
				log.Printf("skipping %s: %v", obj.URL, err)

				report.Skipped++

				if progress != nil {
					progress(i + 1)
				}

				continue
			}

			return report, fmt.Errorf("recovering %s: %w", obj.URL, err)
		}

		if created {
			report.Recovered++

			log.Printf("recovered record for %s (area=%s)", rec.ImageURL, rec.Area)
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	return report, nil
}

// recordFromObject synthesizes a record from a stored photo. Metadata
// written at upload time is honored; anything absent falls back to the
// anonymous placeholder and the sentinel area.
func (r *Reconciler) recordFromObject(obj *storage.Object) (*Record, error) {
	point, err := pointFromMetadata(obj.Metadata)
	if err != nil {
		return nil, err
	}

	area := obj.Metadata["area"]
	if area == "" {
		area = r.sentinel
	}

	createdAt := obj.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Record{
		ImageURL:  obj.URL,
		Point:     point,
		Note:      obj.Metadata["note"],
		Nickname:  obj.Metadata["nickname"],
		Area:      area,
		Source:    SourceRescue,
		CreatedAt: createdAt,
	}, nil
}

func pointFromMetadata(meta storage.Metadata) (spatial.Point, error) {
	lat, err := strconv.ParseFloat(meta["lat"], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("no usable latitude in metadata: %w", err)
	}

	lng, err := strconv.ParseFloat(meta["lng"], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("no usable longitude in metadata: %w", err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if !p.InDomain() {
		return spatial.Point{}, fmt.Errorf("metadata coordinates outside the valid domain: %v", p)
	}

	return p, nil
}
