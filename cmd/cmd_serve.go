// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/spf13/cobra"

	"github.com/qingshui/landgods/shrine"
	"github.com/qingshui/landgods/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the shrine map web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := shrine.Load()
		if err != nil {
			return err
		}

		db, records, err := openRecordStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := records.CreateSchema(); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		objects := newObjectStore(cfg)

		geocoder, err := newGeocoder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		resolver := shrine.NewPlaceResolver(geocoder, cfg)
		pipeline := shrine.NewPipeline(cfg, records, objects, resolver)
		aggregator := shrine.NewAggregator(records)
		reconciler := shrine.NewReconciler(cfg, records, objects)

		count, err := records.CountRecords()
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}

		log.Printf("landgods %s serving %d records on %s", Version, count, cfg.ListenAddr)

		return shrine.NewServer(cfg, pipeline, aggregator, reconciler, records).Run()
	},
}

// openRecordStore selects the backend: DATABASE_URL means the networked
// Postgres store, otherwise the embedded DuckDB file.
func openRecordStore(cfg *shrine.Config) (*sql.DB, shrine.RecordStore, error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres database: %w", err)
		}

		return db, shrine.NewPostgresRecordStore(db), nil
	}

	if dir := filepath.Dir(cfg.DuckDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening duckdb database: %w", err)
	}

	return db, shrine.NewDuckDBRecordStore(db), nil
}

func newObjectStore(cfg *shrine.Config) storage.ObjectStore {
	var opts []storage.CloudinaryOption

	if os.Getenv("LANDGODS_HTTP_TRACE") != "" {
		opts = append(opts, storage.WithHTTPClient(&http.Client{
			Transport: &storage.LoggingRoundTripper{
				Transport: http.DefaultTransport,
				Writer:    os.Stderr,
			},
		}))
	}

	return storage.NewCloudinary(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
		opts...,
	)
}

func newGeocoder(ctx context.Context, cfg *shrine.Config) (shrine.ReverseGeocoder, error) {
	if cfg.GeocoderProvider == "google" {
		apiKey, err := shrine.ResolveGoogleMapsAPIKey(ctx, cfg.GoogleMapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("resolving Google Maps API key: %w", err)
		}

		return shrine.NewGoogleMapsGeocoder(apiKey), nil
	}

	return shrine.NewNominatimGeocoder(cfg.NominatimBaseURL), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
