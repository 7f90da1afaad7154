package cmd

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema [type]",
	Short: "Output the audit trail schema",
	Long: `Output the SQL schema for the audit_entries table used by 'atmsim run --audit-dsn'.

Available schema types:
  full      Table and indexes (default)
  tables    Table only
  indexes   Indexes only

The schema is designed for MariaDB 11.8+ but should work with MySQL 8+.

Examples:
  atmsim schema                          # Output complete schema
  atmsim schema full > audit.sql         # Save full schema to file
  atmsim schema | mysql -u root atm      # Create the table and indexes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

var schemaOutputFile string

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutputFile, "output", "o", "", "output file (default: stdout)")
}

// schemaFiles lists the embedded files for each schema type
var schemaFiles = map[string][]string{
	"full":    {"schemas/audit_tables.sql", "schemas/audit_indexes.sql"},
	"tables":  {"schemas/audit_tables.sql"},
	"indexes": {"schemas/audit_indexes.sql"},
}

// schemaContent concatenates the embedded files for schemaType
func schemaContent(schemaType string) ([]byte, error) {
	files, ok := schemaFiles[schemaType]
	if !ok {
		return nil, fmt.Errorf("unknown schema type '%s' (valid types: full, tables, indexes)", schemaType)
	}

	var content []byte
	for i, name := range files {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		if i > 0 {
			content = append(content, '\n')
		}
		content = append(content, data...)
	}
	return content, nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	u := newUI()

	schemaType := "full"
	if len(args) > 0 {
		schemaType = args[0]
	}

	content, err := schemaContent(schemaType)
	if err != nil {
		return fail(u, 1, err)
	}

	if schemaOutputFile == "" {
		fmt.Fprint(cmd.OutOrStdout(), string(content))
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(schemaOutputFile)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fail(u, 1, fmt.Errorf("creating directory: %w", err))
		}
	}

	if err := os.WriteFile(schemaOutputFile, content, 0644); err != nil {
		return fail(u, 1, fmt.Errorf("writing file: %w", err))
	}
	fmt.Fprintln(os.Stderr, u.Success("Schema written to: "+schemaOutputFile))
	return nil
}
