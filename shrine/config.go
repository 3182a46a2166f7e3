// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Defaults for the Qingshui deployment.
const (
	DefaultListenAddr    = ":10000"
	DefaultDuckDBPath    = "data/landgods.duckdb"
	DefaultRegionName    = "清水"
	DefaultLocale        = "zh-TW"
	DefaultThresholdKm   = 0.05
	DefaultRescuePage    = 500
	DefaultNominatimBase = "https://nominatim.openstreetmap.org"

	// AnonymousName is shown for submissions without a nickname. It is a
	// display-time placeholder and is never written to the store.
	AnonymousName = "熱心串友"
)

// Bounds is a rectangular lat/lng operating region.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// QingshuiBounds covers the Qingshui coastal plain of Taichung.
var QingshuiBounds = Bounds{
	MinLat: 24.30,
	MaxLat: 24.48,
	MinLng: 120.58,
	MaxLng: 120.75,
}

// CloudinaryConfig holds the credentials for the photo host.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Config is built once at process start and handed to each component.
// Component logic never reads the environment directly.
type Config struct {
	ListenAddr  string
	AdminSecret string

	// DatabaseURL selects the networked Postgres backend when set;
	// otherwise the embedded DuckDB file at DuckDBPath is used.
	DatabaseURL string
	DuckDBPath  string

	Cloudinary CloudinaryConfig

	// GeocoderProvider is "nominatim" or "google".
	GeocoderProvider string
	GoogleMapsAPIKey string
	NominatimBaseURL string
	Locale           language.Tag

	RegionName string
	Fence      Bounds

	// DuplicateThresholdKm must be positive even when the check is
	// disabled, so a disabled check and a misconfigured one can never be
	// confused.
	DuplicateThresholdKm  float64
	DuplicateCheckEnabled bool

	RescuePageSize int
}

// SentinelPlace is the fallback label stored when place resolution fails.
func (c *Config) SentinelPlace() string {
	return c.RegionName + "未知角落"
}

// Load builds a Config from the environment. A .env file is honored when
// present, matching the original deployment's setup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  envOr("LANDGODS_LISTEN_ADDR", DefaultListenAddr),
		AdminSecret: os.Getenv("LANDGODS_ADMIN_SECRET"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DuckDBPath:  envOr("LANDGODS_DB_PATH", DefaultDuckDBPath),
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		GeocoderProvider:      envOr("LANDGODS_GEOCODER", "nominatim"),
		GoogleMapsAPIKey:      os.Getenv("GOOGLE_MAPS_API_KEY"),
		NominatimBaseURL:      envOr("LANDGODS_NOMINATIM_URL", DefaultNominatimBase),
		RegionName:            envOr("LANDGODS_REGION_NAME", DefaultRegionName),
		Fence:                 QingshuiBounds,
		DuplicateThresholdKm:  DefaultThresholdKm,
		DuplicateCheckEnabled: true,
		RescuePageSize:        DefaultRescuePage,
	}

	locale, err := language.Parse(envOr("LANDGODS_LOCALE", DefaultLocale))
	if err != nil {
		return nil, fmt.Errorf("parsing LANDGODS_LOCALE: %w", err)
	}

	cfg.Locale = locale

	if v := os.Getenv("LANDGODS_DUP_THRESHOLD_KM"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing LANDGODS_DUP_THRESHOLD_KM: %w", err)
		}

		cfg.DuplicateThresholdKm = threshold
	}

	if v := os.Getenv("LANDGODS_DUP_CHECK"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LANDGODS_DUP_CHECK: %w", err)
		}

		cfg.DuplicateCheckEnabled = enabled
	}

	if v := os.Getenv("LANDGODS_RESCUE_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LANDGODS_RESCUE_PAGE_SIZE: %w", err)
		}

		cfg.RescuePageSize = size
	}

	if err := parseFenceEnv(&cfg.Fence); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFenceEnv(fence *Bounds) error {
	fields := []struct {
		name string
		dst  *float64
	}{
		{"LANDGODS_FENCE_MIN_LAT", &fence.MinLat},
		{"LANDGODS_FENCE_MAX_LAT", &fence.MaxLat},
		{"LANDGODS_FENCE_MIN_LNG", &fence.MinLng},
		{"LANDGODS_FENCE_MAX_LNG", &fence.MaxLng},
	}

	for _, f := range fields {
		v := os.Getenv(f.name)
		if v == "" {
			continue
		}

		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.name, err)
		}

		*f.dst = parsed
	}

	return nil
}

// Validate rejects configurations that would silently disable checks or
// misbehave at runtime.
func (c *Config) Validate() error {
	if c.DuplicateThresholdKm <= 0 || math.IsNaN(c.DuplicateThresholdKm) {
		return fmt.Errorf("duplicate threshold must be positive, got %f (use LANDGODS_DUP_CHECK=false to disable the check)", c.DuplicateThresholdKm)
	}

	if c.Fence.MinLat >= c.Fence.MaxLat {
		return fmt.Errorf("fence latitude bounds inverted: %f >= %f", c.Fence.MinLat, c.Fence.MaxLat)
	}

	if c.Fence.MinLng >= c.Fence.MaxLng {
		return fmt.Errorf("fence longitude bounds inverted: %f >= %f", c.Fence.MinLng, c.Fence.MaxLng)
	}

	if c.Fence.MinLat < -90 || c.Fence.MaxLat > 90 || c.Fence.MinLng < -180 || c.Fence.MaxLng > 180 {
		return errors.New("fence bounds outside the valid lat/lng domain")
	}

	if strings.TrimSpace(c.RegionName) == "" {
		return errors.New("region name can't be empty")
	}

	if c.RescuePageSize <= 0 {
		return fmt.Errorf("rescue page size must be positive, got %d", c.RescuePageSize)
	}

	switch c.GeocoderProvider {
	case "nominatim", "google":
	default:
		return fmt.Errorf("unknown geocoder provider: %s", c.GeocoderProvider)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return fallback
}
