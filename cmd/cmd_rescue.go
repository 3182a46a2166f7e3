// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/qingshui/landgods/shrine"
	"github.com/qingshui/landgods/utils"
)

var rescueCmd = &cobra.Command{
	Use:   "rescue",
	Short: "Rebuild missing records from the photo host",
	Long: `Lists every photo on the photo host and re-creates any database record
that is missing for it, using the metadata attached at upload time.
Safe to run repeatedly: photos that already have a record are skipped.`,
	Args: cobra.NoArgs,
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

		reconciler := shrine.NewReconciler(cfg, records, newObjectStore(cfg))

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Rescuing records"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		report, err := reconciler.Reconcile(cmd.Context(), func(done int) {
			if bar != nil {
				_ = bar.Set(done)
			}
		})

		if bar != nil {
			_ = bar.Finish()
		}

		if err != nil {
			return err
		}

		fmt.Printf("✅ Scanned %s photos: recovered %s records, skipped %s\n",
			utils.FormatInt(int64(report.Scanned)),
			utils.FormatInt(int64(report.Recovered)),
			utils.FormatInt(int64(report.Skipped)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(rescueCmd)
}
