// Package database provides the audit trail storage for the ATM simulator.
//
// FILE: scanners.go
// PURPOSE: Row scanning helper functions for converting database rows to model structs.
//
// KEY FUNCTIONS:
// - scanAuditEntry: Scans an audit entry row
//
// RELATED FILES:
// - queries_audit.go: Uses scanAuditEntry
package database

import (
	"database/sql"
	"fmt"

	"github.com/willfong/atmsim/internal/models"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditEntry(row rowScanner) (*models.AuditEntry, error) {
	e := &models.AuditEntry{}

	// Nullable fields need sql.Null* types for scanning
	var (
		amount      sql.NullInt64
		description sql.NullString
	)

	err := row.Scan(
		&e.ID, &e.Timestamp, &e.SessionID, &e.TerminalID, &e.Channel,
		&e.Action, &e.Outcome, &amount, &e.Balance, &description,
	)
	if err != nil {
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}

	if amount.Valid {
		v := amount.Int64
		e.Amount = &v
	}
	e.Description = description.String

	return e, nil
}
