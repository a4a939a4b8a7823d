package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.Instrumentation)
	assert.Equal("1/3", cfg.TrustLevel)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	cfg.DBPath = "/opt/data"

	assert.Equal("/opt/data", cfg.DBDir())
	assert.Equal("/foo/config/config.toml", cfg.ConfigFile())

	cfg.DBPath = "data"
	assert.Equal("/foo/data", cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	require.NoError(t, TestConfig().ValidateBasic())

	testCases := map[string]func(*Config){
		"trust level below 1/3":   func(c *Config) { c.TrustLevel = "1/4" },
		"malformed trust level":   func(c *Config) { c.TrustLevel = "one third" },
		"zero trusting period":    func(c *Config) { c.TrustingPeriod = 0 },
		"negative clock drift":    func(c *Config) { c.MaxClockDrift = -time.Second },
		"negative trusted height": func(c *Config) { c.TrustedHeight = -1 },
		"trusted hash not hex":    func(c *Config) { c.TrustedHash = "zz" },
		"empty db backend":        func(c *Config) { c.DBBackend = "" },
		"unknown log format":      func(c *Config) { c.LogFormat = "xml" },
		"prometheus without addr": func(c *Config) {
			c.Instrumentation.Prometheus = true
			c.Instrumentation.PrometheusListenAddr = ""
		},
		"missing instrumentation": func(c *Config) { c.Instrumentation = nil },
	}
	for name, malleate := range testCases {
		malleate := malleate
		t.Run(name, func(t *testing.T) {
			cfg := TestConfig()
			malleate(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestConfigTrustOptions(t *testing.T) {
	cfg := TestConfig()
	assert.False(t, cfg.HasTrustedBlock())

	cfg.TrustedHeight = 10
	cfg.TrustedHash = "6D2E1A7C0D5B6E1F8E0C4F3E7A1B2C3D4E5F60718293A4B5C6D7E8F901234567"
	require.True(t, cfg.HasTrustedBlock())

	opts, err := cfg.TrustOptions()
	require.NoError(t, err)
	assert.EqualValues(t, 10, opts.Height)
	assert.Len(t, opts.Hash, 32)
	assert.Equal(t, cfg.TrustingPeriod, opts.Period)

	cfg.TrustedHash = "6D2E"
	_, err = cfg.TrustOptions()
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	cfg := TestConfig()
	cfg.TrustLevel = "2/3"
	cfg.MaxClockDrift = 5 * time.Second

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.EqualValues(t, 2, opts.TrustLevel.Numerator)
	assert.EqualValues(t, 3, opts.TrustLevel.Denominator)
	assert.Equal(t, 5*time.Second, opts.MaxClockDrift)
	assert.True(t, opts.Now.IsZero())
}
