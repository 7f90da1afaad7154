package models

import (
	"time"
)

// AuditAction represents the type of action being logged
type AuditAction string

const (
	// Card handling
	AuditCardInserted AuditAction = "card_inserted"
	AuditCardEjected  AuditAction = "card_ejected"
	AuditCardStolen   AuditAction = "card_reported_stolen"

	// Authentication actions
	AuditPINSuccess     AuditAction = "pin_success"
	AuditPINFailed      AuditAction = "pin_failed"
	AuditPINChanged     AuditAction = "pin_changed"
	AuditAccountLocked  AuditAction = "account_locked"
	AuditInvalidEntry   AuditAction = "invalid_entry"
	AuditLanguageChange AuditAction = "language_changed"

	// Transaction actions
	AuditDeposit             AuditAction = "deposit"
	AuditWithdrawal          AuditAction = "withdrawal"
	AuditWithdrawalDeclined  AuditAction = "withdrawal_declined"
	AuditBalanceInquiry      AuditAction = "balance_inquiry"
	AuditTransactionCanceled AuditAction = "transaction_canceled"

	// Session actions
	AuditSessionEnded AuditAction = "session_ended"
)

// AuditOutcome represents the result of the action
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
	OutcomeDenied  AuditOutcome = "denied"
)

// AuditChannel represents where the action originated
type AuditChannel string

const (
	AuditChannelATM AuditChannel = "atm"
)

// AuditEntry is one row of the ATM audit trail
type AuditEntry struct {
	ID int64 `db:"id" json:"id"`

	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// Session and terminal
	SessionID  string       `db:"session_id" json:"session_id"`
	TerminalID string       `db:"terminal_id" json:"terminal_id"`
	Channel    AuditChannel `db:"channel" json:"channel"`

	Action  AuditAction  `db:"action" json:"action"`
	Outcome AuditOutcome `db:"outcome" json:"outcome"`

	// Amount is set for deposits and withdrawals only
	Amount *int64 `db:"amount" json:"amount"`

	// Balance after the action was applied
	Balance int64 `db:"balance" json:"balance"`

	Description string `db:"description" json:"description"`
}

// IsSuccessful returns true if the action completed successfully
func (a *AuditEntry) IsSuccessful() bool {
	return a.Outcome == OutcomeSuccess
}

// IsAuthenticationEvent returns true if this is a PIN related event
func (a *AuditEntry) IsAuthenticationEvent() bool {
	switch a.Action {
	case AuditPINSuccess, AuditPINFailed, AuditPINChanged, AuditAccountLocked:
		return true
	default:
		return false
	}
}

// IsTransactionEvent returns true if this entry moved or attempted to move money
func (a *AuditEntry) IsTransactionEvent() bool {
	switch a.Action {
	case AuditDeposit, AuditWithdrawal, AuditWithdrawalDeclined:
		return true
	default:
		return false
	}
}
