package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the ATM simulator
type Config struct {
	// ATM session behavior
	ATM ATMConfig `mapstructure:"atm"`

	// Database configuration for the audit trail
	Database DatabaseConfig `mapstructure:"database"`

	// Audit trail settings
	Audit AuditConfig `mapstructure:"audit"`

	// Load simulation
	Simulate SimulateConfig `mapstructure:"simulate"`

	// Logging
	Log LogConfig `mapstructure:"log"`
}

// ATMConfig holds the tunables of one simulated ATM
type ATMConfig struct {
	InitialBalance  int64         `mapstructure:"initial_balance"`
	DefaultPIN      int64         `mapstructure:"default_pin"`
	MaxPINAttempts  int           `mapstructure:"max_pin_attempts"`
	MenuReturnDelay time.Duration `mapstructure:"menu_return_delay"`

	// Language code: "en" or "es"
	Language string `mapstructure:"language"`

	MaskPIN    bool   `mapstructure:"mask_pin"`
	TerminalID string `mapstructure:"terminal_id"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Connection string (DSN)
	// Format: user:password@tcp(host:port)/database
	DSN string `mapstructure:"dsn"`

	// Driver (mysql)
	Driver string `mapstructure:"driver"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// AuditConfig controls the audit journal
type AuditConfig struct {
	// Enabled writes audit entries to the database
	Enabled bool `mapstructure:"enabled"`

	QueueSize    int           `mapstructure:"queue_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

// SimulateConfig controls the multi-terminal load simulation
type SimulateConfig struct {
	Sessions      int `mapstructure:"sessions"`
	Terminals     int `mapstructure:"terminals"`
	MaxOperations int `mapstructure:"max_operations"`

	// Seed makes runs reproducible (0 = random)
	Seed int64 `mapstructure:"seed"`

	// Customer behavior probabilities (0.0-1.0)
	WrongPINRate float64 `mapstructure:"wrong_pin_rate"`
	CancelRate   float64 `mapstructure:"cancel_rate"`
	TypoRate     float64 `mapstructure:"typo_rate"`
	StolenRate   float64 `mapstructure:"stolen_rate"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// File is the log destination. Empty means the command's default sink.
	File string `mapstructure:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ATM: ATMConfig{
			InitialBalance:  InitialBalance,
			DefaultPIN:      DefaultPIN,
			MaxPINAttempts:  MaxPINAttempts,
			MenuReturnDelay: MenuReturnDelay,
			Language:        DefaultLanguage,
			MaskPIN:         MaskPIN,
			TerminalID:      TerminalID,
		},
		Database: DatabaseConfig{
			Driver:          DBDriver,
			MaxOpenConns:    DBMaxOpenConns,
			MaxIdleConns:    DBMaxIdleConns,
			ConnMaxLifetime: DBConnMaxLifetime,
			ConnMaxIdleTime: DBConnMaxIdleTime,
			ConnectTimeout:  DBConnectTimeout,
		},
		Audit: AuditConfig{
			Enabled:      false,
			QueueSize:    AuditQueueSize,
			WriteTimeout: AuditWriteTimeout,
			FlushTimeout: AuditFlushTimeout,
		},
		Simulate: SimulateConfig{
			Sessions:      SimSessions,
			Terminals:     SimTerminals,
			MaxOperations: SimMaxOperations,
			WrongPINRate:  SimWrongPINRate,
			CancelRate:    SimCancelRate,
			TypoRate:      SimTypoRate,
			StolenRate:    SimStolenRate,
		},
		Log: LogConfig{
			Level:  LogLevel,
			Format: LogFormat,
		},
	}
}

// SetDefaults registers every default with v. Viper only resolves
// environment variables for keys it already knows about.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("atm.initial_balance", d.ATM.InitialBalance)
	v.SetDefault("atm.default_pin", d.ATM.DefaultPIN)
	v.SetDefault("atm.max_pin_attempts", d.ATM.MaxPINAttempts)
	v.SetDefault("atm.menu_return_delay", d.ATM.MenuReturnDelay)
	v.SetDefault("atm.language", d.ATM.Language)
	v.SetDefault("atm.mask_pin", d.ATM.MaskPIN)
	v.SetDefault("atm.terminal_id", d.ATM.TerminalID)

	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.queue_size", d.Audit.QueueSize)
	v.SetDefault("audit.write_timeout", d.Audit.WriteTimeout)
	v.SetDefault("audit.flush_timeout", d.Audit.FlushTimeout)

	v.SetDefault("simulate.sessions", d.Simulate.Sessions)
	v.SetDefault("simulate.terminals", d.Simulate.Terminals)
	v.SetDefault("simulate.max_operations", d.Simulate.MaxOperations)
	v.SetDefault("simulate.seed", d.Simulate.Seed)
	v.SetDefault("simulate.wrong_pin_rate", d.Simulate.WrongPINRate)
	v.SetDefault("simulate.cancel_rate", d.Simulate.CancelRate)
	v.SetDefault("simulate.typo_rate", d.Simulate.TypoRate)
	v.SetDefault("simulate.stolen_rate", d.Simulate.StolenRate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads configuration from viper into a Config struct
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// Unmarshal viper config into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	// Validate ATM config
	if c.ATM.InitialBalance < 0 {
		errs = append(errs, "atm.initial_balance must be non-negative")
	}
	if c.ATM.DefaultPIN < 0 {
		errs = append(errs, "atm.default_pin must be non-negative")
	}
	if c.ATM.MaxPINAttempts < 1 {
		errs = append(errs, "atm.max_pin_attempts must be >= 1")
	}
	if c.ATM.MenuReturnDelay <= 0 {
		errs = append(errs, "atm.menu_return_delay must be positive")
	}
	switch strings.ToLower(c.ATM.Language) {
	case "en", "es":
	default:
		errs = append(errs, fmt.Sprintf("atm.language must be 'en' or 'es' (got %q)", c.ATM.Language))
	}

	// Validate audit config
	if c.Audit.Enabled && c.Database.DSN == "" {
		errs = append(errs, "audit.enabled requires database.dsn")
	}
	if c.Audit.QueueSize < 1 {
		errs = append(errs, "audit.queue_size must be >= 1")
	}
	if c.Audit.WriteTimeout <= 0 {
		errs = append(errs, "audit.write_timeout must be positive")
	}

	// Validate database pool settings
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be >= 1")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "database.max_idle_conns must be >= 0")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns should not exceed max_open_conns")
	}

	// Validate simulation
	if c.Simulate.Sessions < 1 {
		errs = append(errs, "simulate.sessions must be >= 1")
	}
	if c.Simulate.Terminals < 1 {
		errs = append(errs, "simulate.terminals must be >= 1")
	}
	if c.Simulate.MaxOperations < 1 {
		errs = append(errs, "simulate.max_operations must be >= 1")
	}
	rates := map[string]float64{
		"wrong_pin_rate": c.Simulate.WrongPINRate,
		"cancel_rate":    c.Simulate.CancelRate,
		"typo_rate":      c.Simulate.TypoRate,
		"stolen_rate":    c.Simulate.StolenRate,
	}
	for _, name := range []string{"wrong_pin_rate", "cancel_rate", "typo_rate", "stolen_rate"} {
		if r := rates[name]; r < 0 || r > 1 {
			errs = append(errs, fmt.Sprintf("simulate.%s must be between 0 and 1 (got %g)", name, r))
		}
	}

	// Validate logging
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, "log.format must be 'console' or 'json'")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", joinErrors(errs))
	}

	return nil
}

// joinErrors joins error messages with newline and bullet points
func joinErrors(errs []string) string {
	result := errs[0]
	for i := 1; i < len(errs); i++ {
		result += "\n  - " + errs[i]
	}
	return result
}
