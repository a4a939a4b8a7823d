package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tmmath "github.com/tendermint/lightclient/libs/math"
	"github.com/tendermint/lightclient/light"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// DefaultLogLevel defines a default log level as INFO.
	DefaultLogLevel = "info"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
var (
	DefaultLightDir = ".tendermint-light"

	defaultConfigDir      = "config"
	defaultDataDir        = "data"
	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a light client process.
type Config struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// The ID of the chain to verify
	ChainID string `mapstructure:"chain-id"`

	// RPC address of the full node light blocks are fetched from
	Primary string `mapstructure:"primary"`

	// Light blocks older than the trusting period are no longer trusted.
	// Should be significantly less than the unbonding period.
	TrustingPeriod time.Duration `mapstructure:"trusting-period"`

	// Fraction of the trusted validator set that must sign a block to skip
	// to it, written "num/den". Must be between 1/3 and 1.
	TrustLevel string `mapstructure:"trust-level"`

	// Tolerated clock skew between the light client and the chain.
	MaxClockDrift time.Duration `mapstructure:"max-clock-drift"`

	// Height and hash of the light block the first run starts from
	TrustedHeight int64  `mapstructure:"trusted-height"`
	TrustedHash   string `mapstructure:"trusted-hash"`

	// Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Maximum number of light blocks kept after a verification. 0 disables
	// pruning.
	PruningSize uint16 `mapstructure:"pruning-size"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`

	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a light client.
func DefaultConfig() *Config {
	opts := light.DefaultOptions()
	return &Config{
		TrustingPeriod:  opts.TrustingPeriod,
		TrustLevel:      opts.TrustLevel.String(),
		MaxClockDrift:   opts.MaxClockDrift,
		DBBackend:       "goleveldb",
		DBPath:          defaultDataDir,
		PruningSize:     1000,
		LogLevel:        DefaultLogLevel,
		LogFormat:       LogFormatPlain,
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.ChainID = "test-chain"
	cfg.Primary = "http://127.0.0.1:26657"
	cfg.DBBackend = "memdb"
	cfg.Instrumentation = TestInstrumentationConfig()
	return cfg
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.RootDir = root
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg *Config) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ConfigFile returns the full path to the config.toml file.
func (cfg *Config) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if _, err := cfg.Options(); err != nil {
		return err
	}
	if cfg.TrustedHeight < 0 {
		return errors.New("trusted-height can't be negative")
	}
	if cfg.TrustedHash != "" {
		if _, err := hex.DecodeString(cfg.TrustedHash); err != nil {
			return fmt.Errorf("trusted-hash is not hex: %w", err)
		}
	}
	if cfg.DBBackend == "" {
		return errors.New("db-backend can't be empty")
	}
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log-format %q (must be %q or %q)", cfg.LogFormat, LogFormatPlain, LogFormatJSON)
	}
	if cfg.Instrumentation == nil {
		return errors.New("missing [instrumentation] section")
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

// Options converts the verification parameters into light.Options.
func (cfg *Config) Options() (light.Options, error) {
	trustLevel, err := tmmath.ParseFraction(cfg.TrustLevel)
	if err != nil {
		return light.Options{}, fmt.Errorf("can't parse trust-level: %w", err)
	}
	opts := light.Options{
		TrustLevel:     trustLevel,
		TrustingPeriod: cfg.TrustingPeriod,
		MaxClockDrift:  cfg.MaxClockDrift,
	}
	if err := opts.ValidateBasic(); err != nil {
		return light.Options{}, err
	}
	return opts, nil
}

// HasTrustedBlock reports whether a trusted height and hash are configured.
func (cfg *Config) HasTrustedBlock() bool {
	return cfg.TrustedHeight > 0 && cfg.TrustedHash != ""
}

// TrustOptions returns the configured checkpoint.
func (cfg *Config) TrustOptions() (light.TrustOptions, error) {
	hash, err := hex.DecodeString(cfg.TrustedHash)
	if err != nil {
		return light.TrustOptions{}, fmt.Errorf("trusted-hash is not hex: %w", err)
	}
	opts := light.TrustOptions{
		Period: cfg.TrustingPeriod,
		Height: cfg.TrustedHeight,
		Hash:   hash,
	}
	return opts, opts.ValidateBasic()
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "tendermint",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
