// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"log"
	"strings"

	"golang.org/x/text/language"

	"github.com/qingshui/landgods/spatial"
)

// PlaceResolver maps a coordinate to the place label stored on a record.
// It never fails outward: every internal failure degrades to the
// sentinel label so a flaky geocoder can't block a submission.
type PlaceResolver struct {
	geocoder     ReverseGeocoder
	locale       language.Tag
	regionPrefix string
	sentinel     string
}

// NewPlaceResolver builds a resolver around the given provider.
func NewPlaceResolver(geocoder ReverseGeocoder, cfg *Config) *PlaceResolver {
	return &PlaceResolver{
		geocoder:     geocoder,
		locale:       cfg.Locale,
		regionPrefix: cfg.RegionName,
		sentinel:     cfg.SentinelPlace(),
	}
}

// Sentinel returns the fallback label used when resolution fails.
func (r *PlaceResolver) Sentinel() string {
	return r.sentinel
}

// Resolve returns the most specific subdivision the provider reports,
// normalized with the region prefix. The preference order matches what
// locals actually call places: village, then neighbourhood, then town.
func (r *PlaceResolver) Resolve(ctx context.Context, p spatial.Point) string {
	addr, err := r.geocoder.ReverseGeocode(ctx, p.Lat, p.Lng, r.locale)
	if err != nil {
		log.Printf("reverse geocode failed for %v: %v", p, err)

		return r.sentinel
	}

	label := firstNonEmpty(addr.Village, addr.Neighbourhood, addr.Town)
	if label == "" {
		return r.sentinel
	}

	if !strings.Contains(label, r.regionPrefix) {
		label = r.regionPrefix + label
	}

	return label
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
