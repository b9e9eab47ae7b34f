// Package config provides Viper-based configuration loading for the tactics
// advisor and its storage backends.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Storage drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StorageConfig selects where tactics snapshots are persisted.
type StorageConfig struct {
	// Driver is one of "none", "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// TacticsConfig tunes the evaluation and selection passes.
type TacticsConfig struct {
	// Horizon is the number of turns every projection simulates.
	Horizon int `mapstructure:"horizon"`
	// SignificanceWindow is the turn window deltas are scaled to before the
	// significance test.
	SignificanceWindow int `mapstructure:"significance_window"`
	// SignificancePercent is the share of current output a scaled delta must
	// exceed to be tracked.
	SignificancePercent int `mapstructure:"significance_percent"`
	// ExpensiveTechPercent marks a tech as expensive when its research turns
	// exceed this percentage of the game's maximum turns.
	ExpensiveTechPercent int `mapstructure:"expensive_tech_percent"`
	// TechCostRatio discards techs costing more than this multiple of the
	// cheapest expensive tech.
	TechCostRatio int `mapstructure:"tech_cost_ratio"`
	// PeaceMilitaryDiscount divides unit military value while at peace.
	PeaceMilitaryDiscount int `mapstructure:"peace_military_discount"`
	// TurnsAvailable bounds how far ahead building values are compared
	// while scoring research.
	TurnsAvailable int `mapstructure:"turns_available"`
	// UnitValueWeight is the percentage applied to unit combat values.
	UnitValueWeight int `mapstructure:"unit_value_weight"`
	// Weights overrides the default per-category output weights.
	Weights map[string]float64 `mapstructure:"weights"`
	// Formula, when set, replaces the weighted sum with an expression over
	// Food, Production, Gold, Research, Culture and Espionage.
	Formula string `mapstructure:"formula"`
}

// DefaultTactics returns the tactics settings used when nothing is configured.
func DefaultTactics() TacticsConfig {
	return TacticsConfig{
		Horizon:               30,
		SignificanceWindow:    30,
		SignificancePercent:   1,
		ExpensiveTechPercent:  4,
		TechCostRatio:         3,
		PeaceMilitaryDiscount: 3,
		TurnsAvailable:        30,
		UnitValueWeight:       100,
	}
}

// ScriptingConfig holds the Lua hook settings.
type ScriptingConfig struct {
	// ScriptDir holds per-player weight scripts; empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit caps the instructions a single hook call may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tactics   TacticsConfig   `mapstructure:"tactics"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == DriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := c.Tactics.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverNone, DriverPostgres:
		return nil
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	}
	return fmt.Errorf("storage.driver must be one of [none, postgres, sqlite], got %q", s.Driver)
}

// Validate checks the tactics settings.
//
// Postcondition: Returns nil if every setting is usable, or an error describing all violations.
func (t TacticsConfig) Validate() error {
	var errs []string
	if t.Horizon < 1 {
		errs = append(errs, fmt.Sprintf("tactics.horizon must be >= 1, got %d", t.Horizon))
	}
	if t.SignificanceWindow < 1 {
		errs = append(errs, fmt.Sprintf("tactics.significance_window must be >= 1, got %d", t.SignificanceWindow))
	}
	if t.SignificancePercent < 0 {
		errs = append(errs, fmt.Sprintf("tactics.significance_percent must be >= 0, got %d", t.SignificancePercent))
	}
	if t.ExpensiveTechPercent < 0 || t.ExpensiveTechPercent > 100 {
		errs = append(errs, fmt.Sprintf("tactics.expensive_tech_percent must be 0-100, got %d", t.ExpensiveTechPercent))
	}
	if t.TechCostRatio < 1 {
		errs = append(errs, fmt.Sprintf("tactics.tech_cost_ratio must be >= 1, got %d", t.TechCostRatio))
	}
	if t.PeaceMilitaryDiscount < 1 {
		errs = append(errs, fmt.Sprintf("tactics.peace_military_discount must be >= 1, got %d", t.PeaceMilitaryDiscount))
	}
	if t.TurnsAvailable < 1 {
		errs = append(errs, fmt.Sprintf("tactics.turns_available must be >= 1, got %d", t.TurnsAvailable))
	}
	if t.UnitValueWeight < 0 {
		errs = append(errs, fmt.Sprintf("tactics.unit_value_weight must be >= 0, got %d", t.UnitValueWeight))
	}
	for name := range t.Weights {
		if !validCategories[name] {
			errs = append(errs, fmt.Sprintf("tactics.weights has unknown category %q", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var validCategories = map[string]bool{
	"food": true, "production": true, "gold": true,
	"research": true, "culture": true, "espionage": true,
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ALTAI_ prefix
	v.SetEnvPrefix("ALTAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration produced when no file sets anything.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// The defaults are static; an unmarshal failure is a programming error.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config.Defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "altai")
	v.SetDefault("database.password", "altai")
	v.SetDefault("database.name", "altai")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.driver", DriverNone)
	v.SetDefault("storage.sqlite_path", "altai.db")

	d := DefaultTactics()
	v.SetDefault("tactics.horizon", d.Horizon)
	v.SetDefault("tactics.significance_window", d.SignificanceWindow)
	v.SetDefault("tactics.significance_percent", d.SignificancePercent)
	v.SetDefault("tactics.expensive_tech_percent", d.ExpensiveTechPercent)
	v.SetDefault("tactics.tech_cost_ratio", d.TechCostRatio)
	v.SetDefault("tactics.peace_military_discount", d.PeaceMilitaryDiscount)
	v.SetDefault("tactics.turns_available", d.TurnsAvailable)
	v.SetDefault("tactics.unit_value_weight", d.UnitValueWeight)

	v.SetDefault("scripting.script_dir", "")
	v.SetDefault("scripting.instruction_limit", 100000)
}
