package light

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

// VerifyTargets verifies several target heights concurrently. Each target
// gets its own store from newStore, seeded with checkpoint as trusted, so the
// sessions share nothing but the client.
//
// The returned blocks are in the order of targets. The first failure cancels
// the remaining sessions and is returned.
func VerifyTargets(
	ctx context.Context,
	c *Client,
	checkpoint *types.LightBlock,
	targets []int64,
	newStore func() store.Store,
) ([]*types.LightBlock, error) {
	if checkpoint == nil {
		return nil, fmt.Errorf("nil checkpoint")
	}

	results := make([]*types.LightBlock, len(targets))
	g, ctx := errgroup.WithContext(ctx)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			s := newStore()
			if err := s.Insert(checkpoint, store.StatusTrusted); err != nil {
				return fmt.Errorf("target %d: failed to seed store: %w", target, err)
			}

			lb, err := c.VerifyToTarget(ctx, target, NewState(s))
			if err != nil {
				return fmt.Errorf("target %d: %w", target, err)
			}
			results[i] = lb
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
