// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"github.com/qingshui/landgods/spatial"
)

// GeoFence decides whether a coordinate is inside the operating region.
// It is pure and has no failure modes: anything malformed is outside.
type GeoFence struct {
	bounds Bounds
}

// NewGeoFence builds a fence for the given rectangular bounds.
func NewGeoFence(bounds Bounds) *GeoFence {
	return &GeoFence{bounds: bounds}
}

// Contains reports whether p lies inside the fence. Points outside the
// valid lat/lng domain (including NaN) are never inside.
func (f *GeoFence) Contains(p spatial.Point) bool {
	if !p.InDomain() {
		return false
	}

	return p.Lat >= f.bounds.MinLat && p.Lat <= f.bounds.MaxLat &&
		p.Lng >= f.bounds.MinLng && p.Lng <= f.bounds.MaxLng
}
