// Command generate_schema rebuilds sqlc/schema.sql from the embedded ledger migrations.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gdrive-backup/internal/database"
	"gdrive-backup/internal/database/migrations"
)

const schemaHeader = `-- Generated from internal/database/migrations/files by tools/generate_schema.go.
-- DO NOT EDIT. Run 'go generate ./internal/database' after adding a migration.

`

func main() {
	outPath := filepath.Join("internal", "database", "sqlc", "schema.sql")
	if err := run(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "generate schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s from migrations\n", outPath)
}

func run(outPath string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return err
	}

	schema, err := dumpSchema(db)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(schemaHeader+schema), 0644)
}

// dumpSchema returns the CREATE statements of the migrated ledger, tables first,
// leaving out SQLite internals and the golang-migrate bookkeeping table.
func dumpSchema(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql
		FROM sqlite_master
		WHERE sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY CASE type WHEN 'table' THEN 1 WHEN 'index' THEN 2 ELSE 3 END, name
	`)
	if err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", err
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	return b.String(), rows.Err()
}
