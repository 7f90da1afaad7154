// Package atm implements the ATM session controller.
//
// FILE: submit.go
// PURPOSE: Enter-triggered submission handlers. Each parses the input buffer
// for the current mode and applies it. A parse failure shows that mode's
// error prompt, clears the buffer and leaves the mode unchanged.
//
// RELATED FILES:
// - controller.go: PressEnter dispatches here
package atm

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/models"
)

// parseEntry parses the buffer the way the keypad firmware always has:
// a base-10 integer that fits in 32 bits. A leading sign is accepted.
func parseEntry(input string) (int64, error) {
	v, err := strconv.ParseInt(input, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse entry %q: %w", input, err)
	}
	return v, nil
}

func (c *Controller) submitPIN() {
	entered, err := parseEntry(c.s.Input)
	c.s.Input = ""
	if err != nil {
		c.show(text(c.s.Language, msgPINInvalid))
		c.record(models.AuditInvalidEntry, models.OutcomeFailure, nil, "PIN entry not numeric")
		return
	}

	if entered == c.s.PIN {
		c.s.PINAttempts = 0
		c.setMode(ModeMainMenu)
		c.showMenu()
		c.record(models.AuditPINSuccess, models.OutcomeSuccess, nil, "")
		return
	}

	c.s.PINAttempts++
	c.log.Info("incorrect PIN",
		zap.String("session_id", c.s.ID),
		zap.Int("attempts", c.s.PINAttempts),
	)

	if c.s.PINAttempts >= c.cfg.MaxPINAttempts {
		c.show(text(c.s.Language, msgPINLocked))
		c.record(models.AuditAccountLocked, models.OutcomeDenied, nil,
			fmt.Sprintf("%d incorrect attempts, card retained", c.s.PINAttempts))
		c.s.ejectCard()
		c.terminate(TooManyPINAttempts)
		return
	}

	c.show(text(c.s.Language, msgPINIncorrect))
	c.record(models.AuditPINFailed, models.OutcomeFailure, nil,
		fmt.Sprintf("attempt %d of %d", c.s.PINAttempts, c.cfg.MaxPINAttempts))
}

// submitDeposit credits the entered amount. Negative amounts are not rejected.
func (c *Controller) submitDeposit() {
	amount, err := parseEntry(c.s.Input)
	c.s.Input = ""
	if err != nil {
		c.show(text(c.s.Language, msgInvalidAmount))
		return
	}

	c.s.Balance += amount
	c.setMode(ModeMainMenu)
	c.show(text(c.s.Language, msgDepositOK, c.s.Balance))
	c.record(models.AuditDeposit, models.OutcomeSuccess, &amount, "")
	c.scheduleMenuReturn()
}

// submitWithdraw debits the entered amount if the balance covers it.
// Negative amounts are not rejected.
func (c *Controller) submitWithdraw() {
	amount, err := parseEntry(c.s.Input)
	c.s.Input = ""
	if err != nil {
		c.show(text(c.s.Language, msgInvalidAmount))
		return
	}

	if amount <= c.s.Balance {
		c.s.Balance -= amount
		c.show(text(c.s.Language, msgWithdrawOK, c.s.Balance))
		c.record(models.AuditWithdrawal, models.OutcomeSuccess, &amount, "")
	} else {
		c.show(text(c.s.Language, msgInsufficientFunds))
		c.record(models.AuditWithdrawalDeclined, models.OutcomeDenied, &amount, "Insufficient funds")
	}
	c.setMode(ModeMainMenu)
	c.scheduleMenuReturn()
}

func (c *Controller) submitChangePIN() {
	newPIN, err := parseEntry(c.s.Input)
	c.s.Input = ""
	if err != nil {
		c.show(text(c.s.Language, msgNewPINInvalid))
		return
	}

	oldPIN := c.s.PIN
	c.s.PIN = newPIN
	c.setMode(ModeMainMenu)
	c.show(text(c.s.Language, msgPINChanged, oldPIN, newPIN))
	c.record(models.AuditPINChanged, models.OutcomeSuccess, nil, "")
	c.scheduleMenuReturn()
}

func (c *Controller) submitLanguage() {
	input := c.s.Input
	c.s.Input = ""

	var lang Language
	switch input {
	case "1":
		lang = English
	case "2":
		lang = Spanish
	default:
		c.show(text(c.s.Language, msgLanguageInvalid))
		return
	}

	c.s.Language = lang
	c.setMode(ModeMainMenu)
	c.show(text(lang, msgLanguageSet, lang))
	c.record(models.AuditLanguageChange, models.OutcomeSuccess, nil, lang.Code())
	c.scheduleMenuReturn()
}
