// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	points := []Point{
		{Lat: 24.40, Lng: 120.65},
		{Lat: 0, Lng: 0},
		{Lat: -33.45, Lng: -70.66},
		{Lat: 89.9, Lng: 179.9},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, p.DistanceKm(p), "distance from %v to itself", p)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := Point{Lat: 24.2687, Lng: 120.5713} // Qingshui station
	b := Point{Lat: 24.1477, Lng: 120.6736} // Taichung station

	assert.InDelta(t, a.DistanceKm(b), b.DistanceKm(a), 1e-12)
}

func TestDistanceKmKnownDistance(t *testing.T) {
	// Qingshui to Taichung train stations, roughly 17 km apart.
	a := Point{Lat: 24.2687, Lng: 120.5713}
	b := Point{Lat: 24.1477, Lng: 120.6736}

	d := a.DistanceKm(b)
	assert.Greater(t, d, 15.0)
	assert.Less(t, d, 20.0)
}

func TestDistanceKmSmallSeparation(t *testing.T) {
	a := Point{Lat: 24.4000, Lng: 120.6500}
	b := Point{Lat: 24.4001, Lng: 120.6501}

	d := a.DistanceKm(b)
	assert.Greater(t, d, 0.0)
	assert.Less(t, d, 0.05)
}

func TestInDomain(t *testing.T) {
	assert.True(t, Point{Lat: 24.4, Lng: 120.65}.InDomain())
	assert.True(t, Point{Lat: -90, Lng: 180}.InDomain())
	assert.False(t, Point{Lat: 91, Lng: 0}.InDomain())
	assert.False(t, Point{Lat: 0, Lng: -181}.InDomain())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.InDomain())
	assert.False(t, Point{Lat: 0, Lng: math.NaN()}.InDomain())
}

func TestPointScanBytes(t *testing.T) {
	var p Point

	err := p.Scan([]byte("POINT (120.650000 24.400000)"))
	assert.NoError(t, err)
	assert.InDelta(t, 24.4, p.Lat, 1e-9)
	assert.InDelta(t, 120.65, p.Lng, 1e-9)
}

func TestPointScanMap(t *testing.T) {
	var p Point

	err := p.Scan(map[string]interface{}{"x": 120.65, "y": 24.4})
	assert.NoError(t, err)
	assert.Equal(t, Point{Lat: 24.4, Lng: 120.65}, p)
}

func TestPointScanNil(t *testing.T) {
	p := Point{Lat: 1, Lng: 2}

	err := p.Scan(nil)
	assert.NoError(t, err)
	assert.Equal(t, Point{}, p)
}
