// Package database provides the audit trail storage for the ATM simulator.
//
// FILE: queries.go
// PURPOSE: Base Queries struct and constructor. This is the entry point for all
// database operations.
//
// KEY TYPES:
// - Queries: Main struct holding database pool connection
//
// RELATED FILES:
// - pool.go: Connection pool and query statistics
// - queries_audit.go: Audit entry insertion and listing
// - scanners.go: Row scanning helper functions
package database

// Queries provides database operations for the simulator
type Queries struct {
	pool *Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *Pool) *Queries {
	return &Queries{pool: pool}
}
