// Package config contains compile-time defaults for the ATM simulator.
// Every value here can be overridden by a config file, ATMSIM_* environment
// variables or command-line flags.
package config

import "time"

// =============================================================================
// ATM SESSION DEFAULTS
// =============================================================================

// Account and card
const (
	// InitialBalance is the account balance when the simulator starts
	InitialBalance = 1000

	// DefaultPIN is the card PIN when the simulator starts
	DefaultPIN = 1234

	// MaxPINAttempts is how many wrong PINs retain the card and end the session
	MaxPINAttempts = 3
)

// Display behavior
const (
	// MenuReturnDelay is how long a result stays on screen before the main menu returns
	MenuReturnDelay = 3 * time.Second

	// DefaultLanguage is the display language code ("en" or "es")
	DefaultLanguage = "en"

	// MaskPIN replaces PIN digits with '*' while typing
	MaskPIN = false

	// TerminalID identifies this ATM in the audit trail
	TerminalID = "ATM-0001"
)

// =============================================================================
// AUDIT TRAIL DEFAULTS
// =============================================================================

const (
	// AuditQueueSize is how many entries may wait for the writer before drops
	AuditQueueSize = 256

	// AuditWriteTimeout bounds a single audit insert
	AuditWriteTimeout = 2 * time.Second

	// AuditFlushTimeout bounds the drain on shutdown
	AuditFlushTimeout = 5 * time.Second
)

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use
	DBDriver = "mysql"

	// DBMaxOpenConns is maximum open connections in the pool
	DBMaxOpenConns = 4

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 2

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute

	// DBConnectTimeout bounds the startup ping
	DBConnectTimeout = 10 * time.Second
)

// =============================================================================
// SIMULATION DEFAULTS
// =============================================================================

// Traffic shape
const (
	// SimSessions is how many customer visits a simulation runs
	SimSessions = 1000

	// SimTerminals is how many ATMs run concurrently, one goroutine each
	SimTerminals = 8

	// SimMaxOperations is the most menu operations one visit performs
	SimMaxOperations = 4
)

// Customer behavior probabilities
const (
	// SimWrongPINRate is the chance a PIN entry is wrong
	SimWrongPINRate = 0.08

	// SimCancelRate is the chance a customer cancels an entry
	SimCancelRate = 0.05

	// SimTypoRate is the chance a customer clears and retypes an amount
	SimTypoRate = 0.03

	// SimStolenRate is the chance a visit reports the card stolen
	SimStolenRate = 0.002
)

// =============================================================================
// LOGGING DEFAULTS
// =============================================================================

const (
	// LogLevel is the minimum zap level
	LogLevel = "info"

	// LogFormat is "console" or "json"
	LogFormat = "console"
)
