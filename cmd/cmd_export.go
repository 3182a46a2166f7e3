// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qingshui/landgods/shrine"
	"github.com/qingshui/landgods/utils"
)

const exportFile = "records.json"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all shrine records to a file",
	Long:  `Exports every record from the database to a local JSON file. The file is sorted by id to minimize diffs when checking into version control.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := shrine.Load()
		if err != nil {
			return err
		}

		db, records, err := openRecordStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := records.ListAll()
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}

		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling records: %w", err)
		}

		if err := os.WriteFile(exportFile, data, 0o600); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}

		fmt.Printf("✅ Exported %s records to %s\n", utils.FormatInt(int64(len(all))), exportFile)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
