package factory

import (
	"time"

	"github.com/tendermint/lightclient/types"
)

// Chain is a generated sequence of light blocks at heights 1..Height, each
// signed by all of its validators.
type Chain struct {
	ChainID string
	Height  int64
	Blocks  map[int64]*types.LightBlock
	// Keys[h] signs the block at height h; Keys[Height+1] backs the last
	// block's next validator set.
	Keys map[int64]PrivKeys
}

// ChainParams controls GenChain.
type ChainParams struct {
	ChainID  string
	Height   int64
	ValSize  int
	Power    int64
	Churn    int // keys replaced between consecutive heights
	Start    time.Time
	Interval time.Duration
}

// DefaultChainParams returns a static four validator chain producing a block
// every minute.
func DefaultChainParams(chainID string, height int64, start time.Time) ChainParams {
	return ChainParams{
		ChainID:  chainID,
		Height:   height,
		ValSize:  4,
		Power:    10,
		Churn:    0,
		Start:    start,
		Interval: time.Minute,
	}
}

// GenChain generates a linked chain of light blocks. Block h carries
// time Start + h*Interval.
func GenChain(p ChainParams) *Chain {
	c := &Chain{
		ChainID: p.ChainID,
		Height:  p.Height,
		Blocks:  make(map[int64]*types.LightBlock, p.Height),
		Keys:    make(map[int64]PrivKeys, p.Height+1),
	}

	keys := GenPrivKeys(p.ValSize)
	var lastBlockID types.BlockID
	for height := int64(1); height <= p.Height; height++ {
		next := keys
		if p.Churn > 0 {
			next = keys.ChangeKeys(p.Churn)
		}
		c.Keys[height] = keys
		c.Keys[height+1] = next

		vals := keys.ToValidators(p.Power, 0)
		nextVals := next.ToValidators(p.Power, 0)
		sh := keys.GenSignedHeaderLastBlockID(p.ChainID, height, p.Start.Add(time.Duration(height)*p.Interval),
			vals, nextVals, Hash("app_hash"), Hash("cons_hash"), Hash("results_hash"), 0, len(keys), lastBlockID)

		c.Blocks[height] = &types.LightBlock{
			SignedHeader:     sh,
			ValidatorSet:     vals,
			NextValidatorSet: nextVals,
		}
		lastBlockID = sh.Commit.BlockID
		keys = next
	}
	return c
}

// Time returns the header time of the block at height.
func (c *Chain) Time(height int64) time.Time {
	return c.Blocks[height].Time
}
