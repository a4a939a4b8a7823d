package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/libs/log"
)

// RootCommand constructs the root command-line entry point of the light
// client. Its persistent flags override the config file.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "light",
		Short: "Verify light blocks of a Tendermint chain by bisection",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			pconf, err := config.ParseConfig(viper.GetViper(), conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			if err := config.EnsureRoot(conf.RootDir); err != nil {
				return err
			}
			return log.OverrideWithNewLogger(logger, conf.LogFormat, conf.LogLevel)
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("chain-id", conf.ChainID, "ID of the chain to verify")
	flags.StringP("primary", "p", conf.Primary, "RPC address of the full node to fetch light blocks from")
	flags.Duration("trusting-period", conf.TrustingPeriod,
		"trusting period that headers can be verified within. Should be significantly less than the unbonding period")
	flags.String("trust-level", conf.TrustLevel, "trust level. Must be between 1/3 and 3/3")
	flags.Duration("max-clock-drift", conf.MaxClockDrift, "tolerated clock skew between the light client and the chain")
	flags.Int64("trusted-height", conf.TrustedHeight, "trusted header's height")
	flags.String("trusted-hash", conf.TrustedHash, "trusted header's hash (hex)")
	flags.String("db-backend", conf.DBBackend, "database backend")
	flags.String("log-level", conf.LogLevel, "log level")
	flags.String("log-format", conf.LogFormat, "log format: plain or json")
	return cmd
}
