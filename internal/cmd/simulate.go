package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/audit"
	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/database"
	"github.com/willfong/atmsim/internal/logger"
	"github.com/willfong/atmsim/internal/simulator"
	"github.com/willfong/atmsim/internal/ui"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run many simulated customers against concurrent ATMs",
	Long: `Simulate customers visiting a set of ATMs.

Each terminal runs in its own goroutine with its own account. Customers
insert the card, type their PIN (sometimes wrongly), use a few menu
operations and exit. Some cancel, mistype amounts or report the card
stolen. A terminal that retains a card or is reported stolen is put back
in service with a fresh account for the next customer.

Menu returns run on a virtual clock, so the simulation runs at full speed.
With --audit-dsn every event is written to the audit trail, which makes
this a load generator for the audit database.

Behavior probabilities live in config/defaults.go or the simulate section
of the config file.

Example:
  atmsim simulate
  atmsim simulate --sessions 100000 --terminals 32 --seed 42
  atmsim simulate --audit-dsn "user:pass@tcp(localhost:3306)/atm"`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.Int("sessions", config.SimSessions, "number of customer visits")
	f.Int("terminals", config.SimTerminals, "number of concurrent ATMs")
	f.Int64("seed", 0, "random seed for reproducibility (0 = random)")
	f.Float64("wrong-pin-rate", config.SimWrongPINRate, "chance a PIN entry is wrong")
	f.String("audit-dsn", "", "MySQL DSN for the audit trail (enables auditing)")
	f.String("log-file", "", "write logs to this file (default: discard)")
}

// simulateFlagKeys maps simulate flags to config keys
var simulateFlagKeys = map[string]string{
	"sessions":       "simulate.sessions",
	"terminals":      "simulate.terminals",
	"seed":           "simulate.seed",
	"wrong-pin-rate": "simulate.wrong_pin_rate",
	"audit-dsn":      "database.dsn",
	"log-file":       "log.file",
}

func runSimulate(cmd *cobra.Command, args []string) error {
	u := newUI()

	if err := bindFlags(cmd.Flags(), simulateFlagKeys); err != nil {
		return fail(u, 1, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(u, 1, err)
	}
	if cmd.Flags().Changed("audit-dsn") {
		cfg.Audit.Enabled = true
	}

	log, err := logger.New(cfg.Log, "")
	if err != nil {
		return fail(u, 1, err)
	}
	defer log.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, u.Header("ATM Load Simulator"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, u.KeyValue("Sessions", strconv.Itoa(cfg.Simulate.Sessions)))
	fmt.Fprintln(out, u.KeyValue("Terminals", strconv.Itoa(cfg.Simulate.Terminals)))
	fmt.Fprintln(out, u.KeyValue("Wrong PINs", fmt.Sprintf("%.1f%%", cfg.Simulate.WrongPINRate*100)))
	fmt.Fprintln(out, u.KeyValue("Audit trail", auditTarget(cfg)))
	fmt.Fprintln(out)

	opts := []simulator.Option{simulator.WithLogger(log)}

	var journal *audit.Journal
	if cfg.Audit.Enabled {
		pool, err := connectAudit(cmd.Context(), u, cfg.Database)
		if err != nil {
			return fail(u, 1, err)
		}
		defer pool.Close()

		journal = audit.NewJournal(database.NewQueries(pool), cfg.Audit, log)
		defer drainJournal(journal, cfg.Audit.FlushTimeout)
		opts = append(opts, simulator.WithRecorder(journal))
	}

	manager := simulator.NewManager(cfg.ATM, cfg.Simulate, opts...)
	fmt.Fprintln(out, u.KeyValue("Seed", strconv.FormatUint(manager.Seed(), 10)))

	spin := u.NewSpinner("Simulating")
	spin.Start()
	report := manager.Run(cmd.Context())
	if cmd.Context().Err() != nil {
		spin.Error("interrupted")
	} else {
		spin.Success("done")
	}

	if journal != nil {
		flush := u.NewSpinner("Flushing audit trail")
		flush.Start()
		if err := drainJournal(journal, cfg.Audit.FlushTimeout); err != nil {
			log.Warn("audit journal did not drain", zap.Error(err))
			flush.Error(err.Error())
		} else {
			s := journal.Stats()
			flush.Success(fmt.Sprintf("%d written, %d dropped, %d failed", s.Written, s.Dropped, s.Failed))
		}
	}

	fmt.Fprintln(out, simulateSummary(u, report))
	fmt.Fprintln(out)
	for _, line := range actionRows(u, report) {
		fmt.Fprintln(out, line)
	}
	return nil
}

func auditTarget(cfg *config.Config) string {
	if !cfg.Audit.Enabled {
		return "disabled"
	}
	return "MySQL"
}

// simulateSummary renders the headline numbers
func simulateSummary(u *ui.UI, r simulator.Report) string {
	items := []ui.KV{
		{Key: "Sessions", Value: strconv.FormatInt(r.Sessions, 10)},
		{Key: "Events", Value: strconv.FormatInt(r.Events, 10)},
		{Key: "Throughput", Value: fmt.Sprintf("%.0f sessions/s", r.SessionsPerSecond())},
		{Key: "Deposited", Value: strconv.FormatInt(r.Deposited, 10)},
		{Key: "Withdrawn", Value: strconv.FormatInt(r.Withdrawn, 10)},
		{Key: "Restarts", Value: strconv.FormatInt(r.Restarts, 10)},
	}
	for _, o := range []simulator.VisitOutcome{
		simulator.VisitCompleted,
		simulator.VisitCanceled,
		simulator.VisitCardRetained,
		simulator.VisitReportedStolen,
	} {
		items = append(items, ui.KV{Key: "Visits " + o.String(), Value: strconv.FormatInt(r.Outcomes[o], 10)})
	}

	return u.SummaryBox("Simulation Summary", items)
}

// actionRows lists audit action counts, most frequent first
func actionRows(u *ui.UI, r simulator.Report) []string {
	type row struct {
		action string
		count  int64
	}
	rows := make([]row, 0, len(r.Actions))
	for action, n := range r.Actions {
		rows = append(rows, row{string(action), n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].action < rows[j].action
		}
		return rows[i].count > rows[j].count
	})

	lines := make([]string, 0, len(rows))
	for _, rw := range rows {
		lines = append(lines, u.TableRow(rw.action, strconv.FormatInt(rw.count, 10), ui.StatusNone))
	}
	return lines
}
