package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/database/seeders"
	"github.com/shashiranjanraj/rincon/pkg/app"
	"github.com/shashiranjanraj/rincon/pkg/database"
	"github.com/shashiranjanraj/rincon/pkg/migration"
)

// withDB opens the configured database for the duration of fn.
func withDB(fn func(db *gorm.DB) error) error {
	db, err := app.OpenDB()
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

// rincon migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("Running migrations…"))
			return migration.New(db).WithOutput(cmd.OutOrStdout()).Run()
		})
	},
}

// rincon migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("Rolling back last batch…"))
			return migration.New(db).WithOutput(cmd.OutOrStdout()).Rollback()
		})
	},
}

// rincon migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return migration.New(db).WithOutput(cmd.OutOrStdout()).Status()
		})
	},
}

// rincon seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("Running seeders…"))
			return seeders.RunAll(db, cmd.OutOrStdout())
		})
	},
}
