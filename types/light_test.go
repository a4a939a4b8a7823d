package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/types"
)

func TestLightBlockValidateBasic(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)
	nextKeys := keys.ChangeKeys(1)
	nextVals := nextKeys.ToValidators(10, 0)
	sh := keys.GenSignedHeader(chainID, 3, bTime, vals, nextVals,
		factory.Hash("app_hash"), factory.Hash("cons_hash"), factory.Hash("results_hash"), 0, len(keys))
	otherVals := factory.GenPrivKeys(4).ToValidators(10, 0)

	testCases := []struct {
		name    string
		lb      types.LightBlock
		chainID string
		expErr  bool
	}{
		{"valid", types.LightBlock{SignedHeader: sh, ValidatorSet: vals, NextValidatorSet: nextVals}, chainID, false},
		{"valid without next set", types.LightBlock{SignedHeader: sh, ValidatorSet: vals}, chainID, false},
		{"missing signed header", types.LightBlock{ValidatorSet: vals}, chainID, true},
		{"missing validator set", types.LightBlock{SignedHeader: sh}, chainID, true},
		{"wrong chain", types.LightBlock{SignedHeader: sh, ValidatorSet: vals}, "other-chain", true},
		{"validator set mismatch", types.LightBlock{SignedHeader: sh, ValidatorSet: otherVals}, chainID, true},
		{"next validator set mismatch", types.LightBlock{SignedHeader: sh, ValidatorSet: vals, NextValidatorSet: vals}, chainID, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.lb.ValidateBasic(tc.chainID)
			if tc.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignedHeaderValidateBasicCommitMismatch(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)
	sh := keys.GenSignedHeader(chainID, 3, bTime, vals, vals,
		factory.Hash("app_hash"), factory.Hash("cons_hash"), factory.Hash("results_hash"), 0, len(keys))
	require.NoError(t, sh.ValidateBasic(chainID))

	sh.Commit.BlockID.Hash = factory.Hash("another block")
	assert.Error(t, sh.ValidateBasic(chainID))

	sh.Commit.BlockID.Hash = sh.Header.Hash()
	sh.Commit.Height++
	assert.Error(t, sh.ValidateBasic(chainID))
}

func TestLightBlockJSON(t *testing.T) {
	c := factory.GenChain(factory.DefaultChainParams(chainID, 2, bTime))
	lb := c.Blocks[2]
	lb.Provider = "peer-1"

	bz, err := json.Marshal(lb)
	require.NoError(t, err)

	var got types.LightBlock
	require.NoError(t, json.Unmarshal(bz, &got))
	require.NoError(t, got.ValidateBasic(chainID))
	assert.Equal(t, lb.Hash(), got.Hash())
	assert.Equal(t, lb.Commit.BlockID, got.Commit.BlockID)
	assert.Equal(t, "peer-1", got.Provider)
	assert.True(t, lb.Time.Equal(got.Time))
}
