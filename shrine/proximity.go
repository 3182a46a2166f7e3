// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"math"

	"github.com/uber/h3-go/v4"

	"github.com/qingshui/landgods/spatial"
)

// proximityRes is the H3 resolution stored alongside each record and used
// to bucket existing points before the exact distance check.
const proximityRes = 8

// res8MinEdgeKm under-estimates the res-8 cell edge so the grid disk
// always over-covers the threshold radius. Over-covering only costs a few
// extra haversine evaluations; under-covering would miss duplicates.
const res8MinEdgeKm = 0.35

// LocatedPoint pairs a coordinate with its stored H3 cell.
type LocatedPoint struct {
	Point spatial.Point
	Cell  h3.Cell
}

// CellFor computes the H3 cell stored with a record's coordinates.
func CellFor(p spatial.Point) (h3.Cell, error) {
	return h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), proximityRes)
}

// ProximityIndex flags candidate coordinates that fall within a threshold
// distance of an already-accepted coordinate. The decision is
// "duplicate iff min haversine distance < threshold"; the H3 cells only
// narrow the set of points the exact distance is computed against.
type ProximityIndex struct {
	thresholdKm float64
	enabled     bool
}

// NewProximityIndex builds the index from a validated configuration.
func NewProximityIndex(cfg *Config) *ProximityIndex {
	return &ProximityIndex{
		thresholdKm: cfg.DuplicateThresholdKm,
		enabled:     cfg.DuplicateCheckEnabled,
	}
}

// Enabled reports whether duplicate suppression is turned on.
func (idx *ProximityIndex) Enabled() bool {
	return idx.enabled
}

// ThresholdKm returns the configured duplicate radius.
func (idx *ProximityIndex) ThresholdKm() float64 {
	return idx.thresholdKm
}

// IsDuplicate reports whether candidate lies strictly within the
// threshold distance of any existing point. When the check is disabled
// nothing is ever a duplicate.
func (idx *ProximityIndex) IsDuplicate(candidate spatial.Point, existing []LocatedPoint) bool {
	if !idx.enabled || len(existing) == 0 {
		return false
	}

	if nearby, ok := idx.prefilter(candidate, existing); ok {
		existing = nearby
	}

	for _, p := range existing {
		if candidate.DistanceKm(p.Point) < idx.thresholdKm {
			return true
		}
	}

	return false
}

// prefilter keeps only the points whose stored cell falls inside a grid
// disk sized from the threshold. Any H3 failure falls back to the full
// scan, which is always correct.
func (idx *ProximityIndex) prefilter(candidate spatial.Point, existing []LocatedPoint) ([]LocatedPoint, bool) {
	cell, err := CellFor(candidate)
	if err != nil {
		return nil, false
	}

	k := int(math.Ceil(idx.thresholdKm/res8MinEdgeKm)) + 1

	disk, err := h3.GridDisk(cell, k)
	if err != nil {
		return nil, false
	}

	inDisk := make(map[h3.Cell]struct{}, len(disk))
	for _, c := range disk {
		inDisk[c] = struct{}{}
	}

	var nearby []LocatedPoint

	for _, p := range existing {
		if p.Cell == 0 {
			// Legacy rows without a stored cell must stay in the scan.
			nearby = append(nearby, p)

			continue
		}

		if _, ok := inDisk[p.Cell]; ok {
			nearby = append(nearby, p)
		}
	}

	return nearby, true
}
