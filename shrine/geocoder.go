// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"

	"golang.org/x/text/language"
)

// Address represents the administrative subdivisions a provider reports
// for a coordinate, most specific first.
type Address struct {
	Village       string
	Neighbourhood string
	Town          string
	DisplayName   string
	Provider      string
}

// ReverseGeocoder maps a coordinate to an Address. Implementations talk
// to external services and may fail; callers decide the fallback.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64, locale language.Tag) (*Address, error)
}
