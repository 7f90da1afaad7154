package replay

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/config"
)

// Frame is the display after one step
type Frame struct {
	Step              string
	Text              string
	Changed           bool
	InsertCardVisible bool
}

// Result is the outcome of one script run
type Result struct {
	Name   string
	Frames []Frame
	Final  atm.Session

	// Termination is set when the session signalled TerminateSession
	Termination *atm.TerminationReason

	// Skipped counts steps not run after termination
	Skipped int

	// Elapsed is virtual time consumed by waits
	Elapsed time.Duration

	Failures []string
}

// Passed reports whether every expectation held
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// LastText returns the final display text
func (r *Result) LastText() string {
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if r.Frames[i].Text != "" {
			return r.Frames[i].Text
		}
	}
	return ""
}

// transcript is the display sink used during replay
type transcript struct {
	text          string
	writes        int
	insertVisible bool
}

func (t *transcript) SetText(message string) {
	t.text = message
	t.writes++
}

func (t *transcript) SetInsertCardVisible(visible bool) {
	t.insertVisible = visible
}

type terminationLatch struct {
	reason *atm.TerminationReason
}

func (l *terminationLatch) TerminateSession(reason atm.TerminationReason) {
	r := reason
	l.reason = &r
}

// Runner replays scripts against fresh controllers
type Runner struct {
	cfg      config.ATMConfig
	log      *zap.Logger
	recorder atm.Recorder
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the logger passed to each controller
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithRecorder sets the audit recorder passed to each controller
func WithRecorder(rec atm.Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// NewRunner creates a runner using cfg for every controller
func NewRunner(cfg config.ATMConfig, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run replays the script on a fresh controller
func (r *Runner) Run(s *Script) *Result {
	disp := &transcript{}
	sched := NewManualScheduler()
	latch := &terminationLatch{}

	opts := []atm.Option{
		atm.WithScheduler(sched),
		atm.WithTerminator(latch),
		atm.WithLogger(r.log.With(zap.String("script", s.Name))),
	}
	if r.recorder != nil {
		opts = append(opts, atm.WithRecorder(r.recorder))
	}

	c := atm.NewController(r.cfg, disp, opts...)
	c.Start()

	res := &Result{Name: s.Name}
	res.Frames = append(res.Frames, Frame{
		Step:              "start",
		Text:              disp.text,
		Changed:           true,
		InsertCardVisible: disp.insertVisible,
	})

	for i, step := range s.Steps {
		if latch.reason != nil {
			res.Skipped = len(s.Steps) - i
			break
		}

		before := disp.writes
		if step.Wait {
			start := sched.Now()
			for _, gen := range sched.Drain() {
				c.ReturnToMenu(gen)
			}
			res.Elapsed += sched.Now() - start
		} else {
			c.Dispatch(step.Event)
		}

		res.Frames = append(res.Frames, Frame{
			Step:              step.String(),
			Text:              disp.text,
			Changed:           disp.writes != before,
			InsertCardVisible: disp.insertVisible,
		})
	}

	res.Final = c.Session()
	res.Termination = latch.reason
	if s.Expect != nil {
		res.Failures = s.Expect.check(res)
	}
	return res
}

// check compares the result against the expectations
func (e *Expect) check(res *Result) []string {
	var failures []string
	final := res.Final

	if e.Mode != "" && !strings.EqualFold(e.Mode, final.Mode.String()) {
		failures = append(failures, fmt.Sprintf("mode: expected %s, got %s", e.Mode, final.Mode))
	}
	if e.Balance != nil && *e.Balance != final.Balance {
		failures = append(failures, fmt.Sprintf("balance: expected %d, got %d", *e.Balance, final.Balance))
	}
	if e.PINAttempts != nil && *e.PINAttempts != final.PINAttempts {
		failures = append(failures, fmt.Sprintf("pin_attempts: expected %d, got %d", *e.PINAttempts, final.PINAttempts))
	}
	if e.Terminated != nil && *e.Terminated != final.Terminated {
		failures = append(failures, fmt.Sprintf("terminated: expected %t, got %t", *e.Terminated, final.Terminated))
	}
	if e.Language != "" {
		if lang, ok := atm.ParseLanguage(e.Language); !ok || lang != final.Language {
			failures = append(failures, fmt.Sprintf("language: expected %s, got %s", e.Language, final.Language.Code()))
		}
	}
	if e.Display != "" && !strings.Contains(res.LastText(), e.Display) {
		failures = append(failures, fmt.Sprintf("display: expected to contain %q, got %q", e.Display, res.LastText()))
	}

	return failures
}
