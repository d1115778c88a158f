// Package migrations holds one migration per table. Importing it registers
// them with pkg/migration.
package migrations
