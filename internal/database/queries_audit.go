// Package database provides the audit trail storage for the ATM simulator.
//
// FILE: queries_audit.go
// PURPOSE: Audit entry database operations.
//
// KEY FUNCTIONS:
// - InsertAuditEntry: Records an audit event
// - RecentAuditEntries: Lists the newest entries, optionally for one session
//
// RELATED FILES:
// - queries.go: Base Queries struct
// - scanners.go: scanAuditEntry
package database

import (
	"context"
	"fmt"

	"github.com/willfong/atmsim/internal/models"
)

// InsertAuditEntry records an audit event and returns its id
func (q *Queries) InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	query := `
		INSERT INTO audit_entries (
			timestamp, session_id, terminal_id, channel,
			action, outcome, amount, balance, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := q.pool.ExecContext(ctx, query,
		entry.Timestamp, entry.SessionID, entry.TerminalID, entry.Channel,
		entry.Action, entry.Outcome, entry.Amount, entry.Balance, entry.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return result.LastInsertId()
}

// RecentAuditEntries returns up to limit entries, newest first.
// An empty sessionID lists all sessions.
func (q *Queries) RecentAuditEntries(ctx context.Context, sessionID string, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, timestamp, session_id, terminal_id, channel,
			action, outcome, amount, balance, description
		FROM audit_entries`

	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
