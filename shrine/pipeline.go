// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/qingshui/landgods/spatial"
	"github.com/qingshui/landgods/storage"
)

// OutcomeStatus is the machine-readable result class of a submission.
type OutcomeStatus string

const (
	// StatusAccepted photo stored and record persisted.
	StatusAccepted OutcomeStatus = "accepted"
	// StatusPending held for review, e.g. a likely duplicate location.
	StatusPending OutcomeStatus = "pending"
	// StatusRejected refused before any I/O.
	StatusRejected OutcomeStatus = "rejected"
	// StatusFailed a downstream collaborator failed.
	StatusFailed OutcomeStatus = "failed"
)

// Reason narrows an outcome status.
type Reason string

const (
	ReasonMissingField      Reason = "missing_field"
	ReasonInvalidField      Reason = "invalid_field"
	ReasonOutOfRegion       Reason = "out_of_region"
	ReasonDuplicateLocation Reason = "duplicate_location"
	ReasonUploadFailed      Reason = "upload_failed"
	ReasonStoreUnavailable  Reason = "store_unavailable"
	ReasonPersistFailed     Reason = "persist_failed"
)

// Outcome is the structured result of one submission. Every path through
// the pipeline ends in an Outcome; nothing escapes as a bare error.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Reason  Reason        `json:"reason,omitempty"`
	Message string        `json:"message"`
	Record  *Record       `json:"record,omitempty"`
}

// Submission is one user-contributed photo with its coordinate.
type Submission struct {
	Photo    []byte
	Point    spatial.Point
	Note     string
	Nickname string
}

// Pipeline runs the admission sequence: geofence, duplicate check, photo
// upload, place resolution, persistence. Steps are strict and
// short-circuiting; validation happens before any I/O.
type Pipeline struct {
	fence    *GeoFence
	index    *ProximityIndex
	resolver *PlaceResolver
	objects  storage.ObjectStore
	records  RecordStore
	region   string
}

// NewPipeline wires the admission pipeline from its collaborators.
func NewPipeline(cfg *Config, records RecordStore, objects storage.ObjectStore, resolver *PlaceResolver) *Pipeline {
	return &Pipeline{
		fence:    NewGeoFence(cfg.Fence),
		index:    NewProximityIndex(cfg),
		resolver: resolver,
		objects:  objects,
		records:  records,
		region:   cfg.RegionName,
	}
}

// Submit runs one submission through the pipeline.
func (p *Pipeline) Submit(ctx context.Context, sub *Submission) *Outcome {
	if len(sub.Photo) == 0 {
		return &Outcome{
			Status:  StatusRejected,
			Reason:  ReasonMissingField,
			Message: "缺少照片",
		}
	}

	// Field limits are checked here, before any I/O: a record that would
	// fail persistence must never get its photo onto the host first.
	if len(sub.Note) > maxNoteLen {
		return &Outcome{
			Status:  StatusRejected,
			Reason:  ReasonInvalidField,
			Message: "備註太長",
		}
	}

	if len(sub.Nickname) > maxNicknameLen {
		return &Outcome{
			Status:  StatusRejected,
			Reason:  ReasonInvalidField,
			Message: "暱稱太長",
		}
	}

	if !p.fence.Contains(sub.Point) {
		return &Outcome{
			Status:  StatusRejected,
			Reason:  ReasonOutOfRegion,
			Message: fmt.Sprintf("座標不在%s服務範圍內", p.region),
		}
	}

	// The coordinate set is read fresh on every submission. Two
	// concurrent submissions for the same new spot can both pass; the
	// check is a best-effort filter, not a uniqueness guarantee.
	if p.index.Enabled() {
		existing, err := p.records.ListCoordinates()
		if err != nil {
			return &Outcome{
				Status:  StatusFailed,
				Reason:  ReasonStoreUnavailable,
				Message: "資料庫暫時無法使用，請稍後再試",
			}
		}

		if p.index.IsDuplicate(sub.Point, existing) {
			return &Outcome{
				Status:  StatusPending,
				Reason:  ReasonDuplicateLocation,
				Message: "這個位置附近已經有紀錄了，待管理員確認",
			}
		}
	}

	upload, err := p.objects.Upload(ctx, sub.Photo, p.uploadMetadata(sub))
	if err != nil {
		log.Printf("photo upload failed: %v", err)

		return &Outcome{
			Status:  StatusFailed,
			Reason:  ReasonUploadFailed,
			Message: "照片上傳失敗，請稍後再試",
		}
	}

	// Place resolution degrades to the sentinel; it never aborts.
	area := p.resolver.Resolve(ctx, sub.Point)

	rec := &Record{
		ImageURL:  upload.URL,
		Point:     sub.Point,
		Note:      sub.Note,
		Nickname:  sub.Nickname,
		Area:      area,
		Source:    SourceUpload,
		CreatedAt: upload.CreatedAt,
	}

	created, err := p.records.CreateIfAbsent(rec)
	if err != nil {
		// The photo is already on the host without a record; the rescue
		// flow will rebuild it from there.
		log.Printf("record write failed for %s, rescue will recover it: %v", upload.URL, err)

		return &Outcome{
			Status:  StatusFailed,
			Reason:  ReasonPersistFailed,
			Message: "照片已保存，但紀錄寫入失敗；系統稍後會自動修復",
		}
	}

	if !created {
		log.Printf("replayed upload for %s, keeping the existing record", upload.URL)
	}

	return &Outcome{
		Status:  StatusAccepted,
		Reason:  "",
		Message: "已收錄，感謝回報！",
		Record:  rec,
	}
}

// uploadMetadata attaches enough context to the photo host that a record
// can be rebuilt from a listing alone.
func (p *Pipeline) uploadMetadata(sub *Submission) storage.Metadata {
	meta := storage.Metadata{
		"lat": strconv.FormatFloat(sub.Point.Lat, 'f', -1, 64),
		"lng": strconv.FormatFloat(sub.Point.Lng, 'f', -1, 64),
	}

	if sub.Note != "" {
		meta["note"] = sub.Note
	}

	if sub.Nickname != "" {
		meta["nickname"] = sub.Nickname
	}

	return meta
}
