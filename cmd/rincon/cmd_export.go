package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/services"
	"github.com/shashiranjanraj/rincon/config"
	"github.com/shashiranjanraj/rincon/pkg/orm"
	"github.com/shashiranjanraj/rincon/pkg/storage"
)

var (
	exportDisk string
	exportDir  string
)

// rincon export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every table as JSON to a storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		return withDB(func(db *gorm.DB) error {
			name := exportDisk
			if name == "" {
				name = config.StorageDefault()
			}
			disk, err := storage.New(ctx, name)
			if err != nil {
				return err
			}

			files, err := services.NewExportService(orm.New(db, nil), disk).Export(ctx, exportDir)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("✔"), disk.URL(f))
			}
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDisk, "disk", "", "storage disk (local | s3), defaults to STORAGE_DISK")
	exportCmd.Flags().StringVar(&exportDir, "dir", "exports", "directory on the disk")
}
