package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/ui"
)

var cfgFile string
var verbose bool
var noColor bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "atmsim",
	Short: "Terminal ATM session simulator",
	Long: `A keypad-driven ATM session simulator.

A single simulated account sits behind a card slot, a numeric keypad and
seven side buttons. Insert the card, enter the PIN, then check the balance,
deposit, withdraw, change the PIN or the display language.

Interactive mode (run): drive the ATM from the keyboard
Scripted mode (replay): feed YAML event scripts and print the transcript

Settings come from compile-time defaults, an optional --config file,
ATMSIM_* environment variables (e.g. ATMSIM_ATM_MAX_PIN_ATTEMPTS) and flags.

Example usage:
  atmsim run
  atmsim run --balance 5000 --pin 4321 --language es
  atmsim replay scripts/withdraw.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// exitError carries a process exit code other than 1
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors and animations")

	// Commands print their own messages
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// initConfig wires the config file and environment into the global viper
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	viper.SetEnvPrefix("ATMSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())
	return nil
}

// loadConfig loads and validates the merged configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindFlags binds command flags to viper keys. Commands bind when they run
// since several flags share a key.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// newUI returns the styled output helper honouring --no-color
func newUI() *ui.UI {
	u := ui.New()
	if noColor {
		u.SetNoColor(true)
	}
	return u
}

// fail prints err to stderr and returns it with the given exit code
func fail(u *ui.UI, code int, err error) error {
	fmt.Fprintln(os.Stderr, u.Error(err.Error()))
	if code == 1 {
		return err
	}
	return &exitError{code: code, err: err}
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}
