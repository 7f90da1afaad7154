package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/willfong/atmsim/internal/audit"
	"github.com/willfong/atmsim/internal/logger"
	"github.com/willfong/atmsim/internal/replay"
	"github.com/willfong/atmsim/internal/ui"
)

var (
	replayQuiet bool
	replayAudit bool
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>...",
	Short: "Replay scripted keypad events and print the display transcript",
	Long: `Feed YAML event scripts through a fresh ATM and print what the display shows.

Script format:
  name: withdraw fifty
  events:
    - insert
    - digit 1234
    - enter
    - menu 3
    - digit 50
    - enter
    - wait          # let pending menu returns fire
  expect:           # optional, checked after the last event
    mode: MainMenu
    balance: 950
    display: Main Menu

Events: insert, digit <digits>, enter, cancel, reset, menu <1-7>, wait.
Menu returns run on a virtual clock, so replays finish instantly.

Exit codes:
  0  every script ran and its expectations held
  1  a script failed to load or an expectation failed
  2  a session was terminated (card retained or reported stolen)

Example:
  atmsim replay scripts/withdraw.yaml
  atmsim replay --quiet scripts/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "print only the summary")
	replayCmd.Flags().BoolVar(&replayAudit, "audit", false, "print the audit events each script produced")
}

func runReplay(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig()
	if err != nil {
		return fail(u, 1, err)
	}

	logPath := ""
	if verbose {
		logPath = "stderr"
	}
	log, err := logger.New(cfg.Log, logPath)
	if err != nil {
		return fail(u, 1, err)
	}
	defer log.Sync()

	out := cmd.OutOrStdout()
	var failed, terminated int

	for _, path := range args {
		script, err := replay.Load(path)
		if err != nil {
			fmt.Fprintln(out, u.TableRow(path, err.Error(), ui.StatusError))
			failed++
			continue
		}

		rec := audit.NewMemoryRecorder()
		runner := replay.NewRunner(cfg.ATM, replay.WithLogger(log), replay.WithRecorder(rec))
		res := runner.Run(script)

		if !replayQuiet {
			fmt.Fprintln(out, u.Header(res.Name))
			printTranscript(out, u, res)
		}
		if replayAudit {
			printAudit(out, u, rec)
		}
		fmt.Fprintln(out, replaySummary(u, res))

		if !res.Passed() {
			failed++
		}
		if res.Termination != nil {
			terminated++
		}
	}

	switch {
	case failed > 0:
		return &exitError{code: 1, err: fmt.Errorf("%d of %d scripts failed", failed, len(args))}
	case terminated > 0:
		return &exitError{code: 2, err: fmt.Errorf("%d of %d sessions terminated", terminated, len(args))}
	}
	return nil
}

// printTranscript writes every step and the display it produced
func printTranscript(w io.Writer, u *ui.UI, res *replay.Result) {
	for _, frame := range res.Frames {
		fmt.Fprintln(w, u.Muted("> "+frame.Step))
		if !frame.Changed {
			fmt.Fprintln(w, u.Muted("  (display unchanged)"))
			continue
		}
		fmt.Fprintln(w, u.Screen(frame.Text))
		if frame.InsertCardVisible {
			fmt.Fprintln(w, u.Muted("  [ "+ui.SymbolCard+" insert card ]"))
		}
	}
	if res.Skipped > 0 {
		fmt.Fprintln(w, u.Warning(fmt.Sprintf("%d events after termination not run", res.Skipped)))
	}
}

func printAudit(w io.Writer, u *ui.UI, rec *audit.MemoryRecorder) {
	for _, e := range rec.Entries() {
		value := string(e.Outcome)
		if e.Amount != nil {
			value += " " + strconv.FormatInt(*e.Amount, 10)
		}
		if e.Description != "" {
			value += " (" + e.Description + ")"
		}

		status := ui.StatusSuccess
		if !e.IsSuccessful() {
			status = ui.StatusError
		}
		fmt.Fprintln(w, u.TableRow(string(e.Action), value, status))
	}
}

// replaySummary renders the per-script summary box
func replaySummary(u *ui.UI, res *replay.Result) string {
	status := "passed"
	switch {
	case !res.Passed():
		status = "failed"
	case res.Termination != nil:
		status = "terminated: " + res.Termination.String()
	}

	items := []ui.KV{
		{Key: "Status", Value: status},
		{Key: "Mode", Value: res.Final.Mode.String()},
		{Key: "Balance", Value: strconv.FormatInt(res.Final.Balance, 10)},
		{Key: "PIN attempts", Value: strconv.Itoa(res.Final.PINAttempts)},
		{Key: "Language", Value: res.Final.Language.String()},
		{Key: "Virtual time", Value: res.Elapsed.String()},
	}
	for _, f := range res.Failures {
		items = append(items, ui.KV{Key: "Expectation", Value: f})
	}

	return u.SummaryBox(res.Name, items)
}
