package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/light/store"
)

// MakeStatusCommand returns the command printing the trusted range of the
// store.
func MakeStatusCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the lowest and latest trusted light blocks in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, db, err := openStore(conf)
			if err != nil {
				return err
			}
			defer db.Close()

			w := cmd.OutOrStdout()
			latest, err := s.LatestTrusted()
			if errors.Is(err, store.ErrLightBlockNotFound) {
				fmt.Fprintln(w, "no trusted light blocks")
				return nil
			} else if err != nil {
				return err
			}
			lowest, err := s.LowestTrusted()
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "chain\t%s\n", latest.ChainID)
			fmt.Fprintf(w, "lowest\t%d\t%X\n", lowest.Height, lowest.Hash())
			fmt.Fprintf(w, "latest\t%d\t%X\t%s\n", latest.Height, latest.Hash(), latest.Time)
			fmt.Fprintf(w, "size\t%d\n", s.Size())
			return nil
		},
	}
}
