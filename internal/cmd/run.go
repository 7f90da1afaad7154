package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/audit"
	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/database"
	"github.com/willfong/atmsim/internal/logger"
	"github.com/willfong/atmsim/internal/tui"
	"github.com/willfong/atmsim/internal/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive terminal ATM",
	Long: `Drive a simulated ATM from the keyboard.

Keys:
  i            insert card
  0-9          keypad digits
  enter        submit
  esc, c       cancel
  backspace, r clear the entry
  F1-F7        side buttons L1-L4, R1-R3 (alt+1..alt+7 also work)
  ?            show all keys
  ctrl+c       quit

Three incorrect PINs retain the card and end the program, as does
reporting the card stolen.

With --audit-dsn every session event is also written to the
audit_entries table (see 'atmsim schema').

Example:
  atmsim run
  atmsim run --balance 250 --language es --mask-pin
  atmsim run --audit-dsn "user:pass@tcp(localhost:3306)/atm" --log-file atm.log`,
	Args: cobra.NoArgs,
	RunE: runATM,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Int64("balance", config.InitialBalance, "starting account balance")
	f.Int64("pin", config.DefaultPIN, "card PIN")
	f.Int("max-attempts", config.MaxPINAttempts, "incorrect PIN attempts before the card is retained")
	f.Duration("delay", config.MenuReturnDelay, "delay before returning to the main menu")
	f.String("language", config.DefaultLanguage, "display language (en, es)")
	f.Bool("mask-pin", config.MaskPIN, "show * instead of PIN digits")
	f.String("terminal", config.TerminalID, "terminal id recorded in the audit trail")
	f.String("audit-dsn", "", "MySQL DSN for the audit trail (enables auditing)")
	f.String("log-file", "", "write logs to this file (default: discard)")

}

// runFlagKeys maps run flags to config keys
var runFlagKeys = map[string]string{
	"balance":      "atm.initial_balance",
	"pin":          "atm.default_pin",
	"max-attempts": "atm.max_pin_attempts",
	"delay":        "atm.menu_return_delay",
	"language":     "atm.language",
	"mask-pin":     "atm.mask_pin",
	"terminal":     "atm.terminal_id",
	"audit-dsn":    "database.dsn",
	"log-file":     "log.file",
}

func runATM(cmd *cobra.Command, args []string) error {
	u := newUI()

	if err := bindFlags(cmd.Flags(), runFlagKeys); err != nil {
		return fail(u, 1, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(u, 1, err)
	}
	if cmd.Flags().Changed("audit-dsn") {
		cfg.Audit.Enabled = true
	}

	// The TUI owns the terminal, so logs only go to a file
	log, err := logger.New(cfg.Log, "")
	if err != nil {
		return fail(u, 1, err)
	}
	defer log.Sync()

	mem := audit.NewMemoryRecorder()
	recorders := audit.Fanout{mem}

	var journal *audit.Journal
	if cfg.Audit.Enabled {
		pool, err := connectAudit(cmd.Context(), u, cfg.Database)
		if err != nil {
			return fail(u, 1, err)
		}
		defer pool.Close()

		journal = audit.NewJournal(database.NewQueries(pool), cfg.Audit, log)
		// Close is idempotent; this covers early returns
		defer drainJournal(journal, cfg.Audit.FlushTimeout)
		recorders = append(recorders, journal)
	}

	model := tui.New(cfg.ATM, u,
		atm.WithLogger(log),
		atm.WithRecorder(recorders),
	)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fail(u, 1, fmt.Errorf("terminal UI failed: %w", err))
	}

	var stats *audit.Stats
	if journal != nil {
		if err := drainJournal(journal, cfg.Audit.FlushTimeout); err != nil {
			log.Warn("audit journal did not drain", zap.Error(err))
			fmt.Println(u.Warning("Audit journal did not drain: " + err.Error()))
		}
		s := journal.Stats()
		stats = &s
	}

	fmt.Println(runSummary(u, model.Session(), model.Termination(), mem, stats))

	if reason := model.Termination(); reason != nil {
		return &exitError{code: 2, err: fmt.Errorf("session terminated: %s", reason)}
	}
	return nil
}

// drainJournal closes the journal, waiting at most timeout for queued entries
func drainJournal(j *audit.Journal, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Close(ctx)
}

// connectAudit opens the audit database and verifies the connection
func connectAudit(ctx context.Context, u *ui.UI, cfg config.DatabaseConfig) (*database.Pool, error) {
	pool, err := database.NewPool(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	spin := u.NewSpinner("Connecting to audit database")
	spin.Start()
	if err := pool.Connect(ctx); err != nil {
		spin.Error("connection failed")
		pool.Close()
		return nil, err
	}
	spin.Success("connected!")
	return pool, nil
}

// runSummary renders the post-session summary box
func runSummary(u *ui.UI, s atm.Session, reason *atm.TerminationReason, mem *audit.MemoryRecorder, stats *audit.Stats) string {
	status := "exited"
	if reason != nil {
		status = "terminated: " + reason.String()
	}

	items := []ui.KV{
		{Key: "Status", Value: status},
		{Key: "Final balance", Value: strconv.FormatInt(s.Balance, 10)},
		{Key: "PIN attempts", Value: strconv.Itoa(s.PINAttempts)},
		{Key: "Language", Value: s.Language.String()},
		{Key: "Events", Value: strconv.Itoa(len(mem.Entries()))},
	}
	if stats != nil {
		items = append(items, ui.KV{
			Key:   "Audit trail",
			Value: fmt.Sprintf("%d written, %d dropped, %d failed", stats.Written, stats.Dropped, stats.Failed),
		})
	}

	return u.SummaryBox("Session Summary", items)
}
