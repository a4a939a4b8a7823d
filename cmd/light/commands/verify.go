package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/libs/log"
	"github.com/tendermint/lightclient/light"
	"github.com/tendermint/lightclient/types"
)

// MakeVerifyCommand returns the command verifying a single height.
func MakeVerifyCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [height]",
		Short: "Verify the light block at height, or the latest one",
		Long: `Verify the light block at height, or the latest one if no height is given.

The first run starts from the configured trusted height and hash. Later runs
continue from the light blocks trusted so far. Every block trusted on the way
to the target is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target int64
			if len(args) == 1 {
				h, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || h <= 0 {
					return fmt.Errorf("height must be a positive integer, got %q", args[0])
				}
				target = h
			}

			s, db, err := openStore(conf)
			if err != nil {
				return err
			}
			defer db.Close()

			c, err := newClient(conf, logger, light.NopMetrics())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := ensureTrusted(ctx, conf, c, s, logger); err != nil {
				return err
			}

			state := light.NewState(s)
			var lb *types.LightBlock
			if target == 0 {
				lb, err = c.VerifyToHighest(ctx, state)
			} else {
				lb, err = c.VerifyToTarget(ctx, target, state)
			}
			if err != nil {
				return err
			}

			printTrace(cmd.OutOrStdout(), lb, state.Trace(lb.Height))
			return nil
		},
	}
}

func printTrace(w io.Writer, lb *types.LightBlock, trace []*types.LightBlock) {
	for _, step := range trace {
		fmt.Fprintf(w, "trusted\t%d\t%X\n", step.Height, step.Hash())
	}
	fmt.Fprintf(w, "verified\t%d\t%X\t%s\n", lb.Height, lb.Hash(), lb.Time)
}
