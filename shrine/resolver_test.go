// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qingshui/landgods/spatial"
)

func TestResolvePrefersVillage(t *testing.T) {
	tests := []struct {
		name     string
		addr     *Address
		expected string
	}{
		{
			"village wins",
			&Address{Village: "高美里", Neighbourhood: "某鄰", Town: "清水區"},
			"清水高美里",
		},
		{
			"neighbourhood fallback",
			&Address{Neighbourhood: "海風里十二鄰", Town: "清水區"},
			"清水海風里十二鄰",
		},
		{
			"town fallback",
			&Address{Town: "清水區"},
			"清水區",
		},
		{
			"prefix already present",
			&Address{Village: "清水里"},
			"清水里",
		},
		{
			"whitespace fields skipped",
			&Address{Village: "  ", Town: "清水區"},
			"清水區",
		},
		{
			"empty address",
			&Address{},
			"清水未知角落",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewPlaceResolver(&stubGeocoder{addr: tc.addr}, testConfig())

			assert.Equal(t, tc.expected, r.Resolve(context.Background(), spatial.Point{Lat: 24.40, Lng: 120.65}))
		})
	}
}

func TestResolveGeocoderErrorReturnsSentinel(t *testing.T) {
	r := NewPlaceResolver(&stubGeocoder{err: errors.New("boom")}, testConfig())

	got := r.Resolve(context.Background(), spatial.Point{Lat: 24.40, Lng: 120.65})

	assert.Equal(t, r.Sentinel(), got)
	assert.Equal(t, "清水未知角落", got)
}
