package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/lightclient/config"
)

// MakeInitCommand returns the command writing the current settings, flags
// included, to the config file.
func MakeInitCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the config file of the light client",
		Example: `light init --chain-id cosmoshub-4 -p http://127.0.0.1:26657 \
	--trusted-height 962118 --trusted-hash 28B97BE9F6DE51AC69F70E0B7BFD7E5C9CD1A595B7DC31AFF27C50D4948020CD`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", conf.ConfigFile())
			return nil
		},
	}
}
