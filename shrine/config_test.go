// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"defaults", func(_ *Config) {}, ""},
		{
			"zero threshold",
			func(cfg *Config) { cfg.DuplicateThresholdKm = 0 },
			"threshold must be positive",
		},
		{
			"negative threshold",
			func(cfg *Config) { cfg.DuplicateThresholdKm = -0.05 },
			"threshold must be positive",
		},
		{
			"NaN threshold",
			func(cfg *Config) { cfg.DuplicateThresholdKm = math.NaN() },
			"threshold must be positive",
		},
		{
			"zero threshold with check disabled",
			func(cfg *Config) {
				cfg.DuplicateThresholdKm = 0
				cfg.DuplicateCheckEnabled = false
			},
			"threshold must be positive",
		},
		{
			"inverted latitude bounds",
			func(cfg *Config) { cfg.Fence.MinLat, cfg.Fence.MaxLat = cfg.Fence.MaxLat, cfg.Fence.MinLat },
			"latitude bounds inverted",
		},
		{
			"inverted longitude bounds",
			func(cfg *Config) { cfg.Fence.MinLng, cfg.Fence.MaxLng = cfg.Fence.MaxLng, cfg.Fence.MinLng },
			"longitude bounds inverted",
		},
		{
			"fence outside domain",
			func(cfg *Config) { cfg.Fence.MaxLat = 91 },
			"outside the valid lat/lng domain",
		},
		{
			"empty region",
			func(cfg *Config) { cfg.RegionName = "  " },
			"region name can't be empty",
		},
		{
			"bad rescue page size",
			func(cfg *Config) { cfg.RescuePageSize = 0 },
			"rescue page size must be positive",
		},
		{
			"unknown geocoder",
			func(cfg *Config) { cfg.GeocoderProvider = "bing" },
			"unknown geocoder provider",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestSentinelPlace(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "清水未知角落", cfg.SentinelPlace())

	cfg.RegionName = "沙鹿"
	assert.Equal(t, "沙鹿未知角落", cfg.SentinelPlace())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, QingshuiBounds, cfg.Fence)
	assert.Equal(t, DefaultThresholdKm, cfg.DuplicateThresholdKm)
	assert.True(t, cfg.DuplicateCheckEnabled)
	assert.Equal(t, "nominatim", cfg.GeocoderProvider)
	assert.Equal(t, "zh-TW", cfg.Locale.String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LANDGODS_DUP_THRESHOLD_KM", "0.1")
	t.Setenv("LANDGODS_DUP_CHECK", "false")
	t.Setenv("LANDGODS_FENCE_MIN_LAT", "24.0")
	t.Setenv("LANDGODS_FENCE_MAX_LAT", "25.0")
	t.Setenv("LANDGODS_REGION_NAME", "沙鹿")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.1, cfg.DuplicateThresholdKm, 1e-9)
	assert.False(t, cfg.DuplicateCheckEnabled)
	assert.InDelta(t, 24.0, cfg.Fence.MinLat, 1e-9)
	assert.InDelta(t, 25.0, cfg.Fence.MaxLat, 1e-9)
	assert.Equal(t, "沙鹿", cfg.RegionName)
}

func TestLoadRejectsNonPositiveThreshold(t *testing.T) {
	t.Setenv("LANDGODS_DUP_THRESHOLD_KM", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold must be positive")
}

func TestLoadRejectsUnparsableThreshold(t *testing.T) {
	t.Setenv("LANDGODS_DUP_THRESHOLD_KM", "fifty meters")

	_, err := Load()
	require.Error(t, err)
}
