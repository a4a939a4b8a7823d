package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	if configTemplate, err = template.New("configFileTemplate").Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and writes the default config file if there is none.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{rootDir, filepath.Join(rootDir, defaultConfigDir), filepath.Join(rootDir, defaultDataDir)} {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	return writeDefaultConfigFileIfNone(rootDir)
}

// WriteConfigFile renders config using the template and writes it to
// config/config.toml under rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	// values are pasted into the template verbatim
	var parsed map[string]interface{}
	if _, err := toml.Decode(buffer.String(), &parsed); err != nil {
		return fmt.Errorf("rendered config is not valid TOML: %w", err)
	}

	return os.WriteFile(path, buffer.Bytes(), 0644)
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// LoadConfigFile reads the TOML file at path on top of DefaultConfig.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return ParseConfig(v, DefaultConfig())
}

// ParseConfig unmarshals the settings held by v into conf and validates the
// result. The root directory is taken from the "home" key.
func ParseConfig(v *viper.Viper, conf *Config) (*Config, error) {
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/light/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.tendermint-light" by default, but could be changed via $TMHOME env
# variable or --home cmd flag.

#######################################################################
###                       Main Config Options                       ###
#######################################################################

# The ID of the chain to verify
chain-id = "{{ .ChainID }}"

# RPC address of the full node light blocks are fetched from
primary = "{{ .Primary }}"

# Light blocks older than the trusting period are no longer trusted.
# Should be significantly less than the unbonding period.
trusting-period = "{{ .TrustingPeriod }}"

# Fraction of the trusted validator set that must sign a block to skip to it.
# Must be between 1/3 and 1/1.
trust-level = "{{ .TrustLevel }}"

# Tolerated clock skew between the light client and the chain
max-clock-drift = "{{ .MaxClockDrift }}"

# Height and hex encoded hash of the light block the first run starts from.
# Obtain them from a source you trust.
trusted-height = {{ .TrustedHeight }}
trusted-hash = "{{ .TrustedHash }}"

# Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
db-backend = "{{ .DBBackend }}"

# Database directory
db-dir = "{{ js .DBPath }}"

# Maximum number of light blocks kept after a verification. 0 disables pruning.
pruning-size = {{ .PruningSize }}

# Output level for logging
log-level = "{{ .LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .LogFormat }}"

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
