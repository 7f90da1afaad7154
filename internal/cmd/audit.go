package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/willfong/atmsim/internal/database"
	"github.com/willfong/atmsim/internal/models"
	"github.com/willfong/atmsim/internal/ui"
)

var (
	auditSession string
	auditLimit   int
	auditKind    string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent audit trail entries",
	Long: `List the newest entries of the audit trail written by 'atmsim run --audit-dsn'.

Example:
  atmsim audit --db "user:pass@tcp(localhost:3306)/atm"
  atmsim audit --db "..." --session 3f1c... --limit 100
  atmsim audit --db "..." --kind auth`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String("db", "", "database connection string")
	auditCmd.Flags().StringVar(&auditSession, "session", "", "only list entries for this session id")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum number of entries")
	auditCmd.Flags().StringVar(&auditKind, "kind", "all", "entry kind: all, auth, transaction")
}

func runAudit(cmd *cobra.Command, args []string) error {
	u := newUI()

	if err := bindFlags(cmd.Flags(), map[string]string{"db": "database.dsn"}); err != nil {
		return fail(u, 1, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(u, 1, err)
	}
	if cfg.Database.DSN == "" {
		return fail(u, 1, fmt.Errorf("database DSN is required (--db or database.dsn)"))
	}
	if auditLimit < 1 {
		return fail(u, 1, fmt.Errorf("--limit must be >= 1"))
	}
	if _, err := filterAuditEntries(nil, auditKind); err != nil {
		return fail(u, 1, err)
	}

	pool, err := connectAudit(cmd.Context(), u, cfg.Database)
	if err != nil {
		return fail(u, 1, err)
	}
	defer pool.Close()

	entries, err := database.NewQueries(pool).RecentAuditEntries(cmd.Context(), auditSession, auditLimit)
	if err != nil {
		return fail(u, 1, err)
	}
	entries, _ = filterAuditEntries(entries, auditKind)

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, u.Muted("No audit entries."))
		return nil
	}

	fmt.Fprintln(out, u.Header(fmt.Sprintf("Audit trail (%d entries)", len(entries))))
	for _, e := range entries {
		value := fmt.Sprintf("%s  %s  balance %s",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Outcome,
			strconv.FormatInt(e.Balance, 10),
		)
		if e.Amount != nil {
			value += fmt.Sprintf("  amount %d", *e.Amount)
		}

		status := ui.StatusSuccess
		if !e.IsSuccessful() {
			status = ui.StatusError
		}
		fmt.Fprintln(out, u.TableRow(string(e.Action), value, status))
	}

	stats := pool.Stats()
	fmt.Fprintln(out, u.Muted(fmt.Sprintf("%d queries, avg latency %s", stats.TotalQueries, stats.AvgLatency)))
	return nil
}

// filterAuditEntries keeps the entries of one kind out of those fetched
func filterAuditEntries(entries []*models.AuditEntry, kind string) ([]*models.AuditEntry, error) {
	var keep func(*models.AuditEntry) bool
	switch kind {
	case "", "all":
		return entries, nil
	case "auth":
		keep = (*models.AuditEntry).IsAuthenticationEvent
	case "transaction":
		keep = (*models.AuditEntry).IsTransactionEvent
	default:
		return nil, fmt.Errorf("invalid kind: %s (valid: all, auth, transaction)", kind)
	}

	out := make([]*models.AuditEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
