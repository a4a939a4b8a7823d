package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/internal/test/factory"
	tmmath "github.com/tendermint/lightclient/libs/math"
	"github.com/tendermint/lightclient/types"
)

const chainID = "test-chain"

var bTime = time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

func signedHeader(keys factory.PrivKeys, vals *types.ValidatorSet, first, last int) *types.SignedHeader {
	return keys.GenSignedHeader(chainID, 10, bTime, vals, vals,
		factory.Hash("app_hash"), factory.Hash("cons_hash"), factory.Hash("results_hash"), first, last)
}

func TestVerifyCommitLight(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)

	testCases := []struct {
		description string
		first, last int
		mutate      func(*types.Commit)
		height      int64
		expErr      bool
		expPowerErr bool
	}{
		{"all signed", 0, 4, nil, 10, false, false},
		{"three of four signed", 0, 3, nil, 10, false, false},
		{"exactly two thirds is not enough", 0, 2, nil, 10, true, true},
		{"wrong height", 0, 4, nil, 11, true, false},
		{"missing signature slot", 0, 4, func(c *types.Commit) { c.Signatures = c.Signatures[1:] }, 10, true, false},
		{"bad signature", 0, 4, func(c *types.Commit) {
			c.Signatures[0].Signature = append([]byte(nil), c.Signatures[1].Signature...)
			c.Signatures[1].Signature = append([]byte(nil), c.Signatures[2].Signature...)
		}, 10, true, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			sh := signedHeader(keys, vals, tc.first, tc.last)
			if tc.mutate != nil {
				tc.mutate(sh.Commit)
			}
			err := types.VerifyCommitLight(chainID, vals, sh.Commit.BlockID, tc.height, sh.Commit)
			if !tc.expErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expPowerErr, types.IsErrNotEnoughVotingPowerSigned(err), err.Error())
		})
	}
}

func TestVerifyCommitLightWrongBlockID(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)
	sh := signedHeader(keys, vals, 0, 4)

	other := sh.Commit.BlockID
	other.Hash = factory.Hash("other block")
	assert.Error(t, types.VerifyCommitLight(chainID, vals, other, 10, sh.Commit))
}

func TestVerifyCommitLightTrusting(t *testing.T) {
	var (
		keys     = factory.GenPrivKeys(4)
		vals     = keys.ToValidators(10, 0)
		oneThird = tmmath.Fraction{Numerator: 1, Denominator: 3}
		sh       = signedHeader(keys, vals, 0, 4)
	)

	// carried builds a trusted set sharing its first n keys with vals.
	carried := func(n int) *types.ValidatorSet {
		k := append(factory.PrivKeys{}, keys[:n]...)
		return k.Extend(len(keys) - n).ToValidators(10, 0)
	}

	testCases := []struct {
		description string
		trusted     *types.ValidatorSet
		expErr      bool
		expPowerErr bool
	}{
		{"same set", vals, false, false},
		{"half of the set carried over", carried(2), false, false},
		{"one of four carried over", carried(1), true, true},
		{"disjoint set", carried(0), true, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			err := types.VerifyCommitLightTrusting(chainID, tc.trusted, sh.Commit, oneThird)
			if !tc.expErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expPowerErr, types.IsErrNotEnoughVotingPowerSigned(err))
		})
	}

	assert.Error(t, types.VerifyCommitLightTrusting(chainID, vals, sh.Commit, tmmath.Fraction{Numerator: 1}))
}

func TestVerifyCommitLightTrustingDoubleVote(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)
	sh := signedHeader(keys, vals, 0, 4)

	sh.Commit.Signatures[1] = sh.Commit.Signatures[0]
	err := types.VerifyCommitLightTrusting(chainID, vals, sh.Commit, tmmath.Fraction{Numerator: 2, Denominator: 3})
	require.Error(t, err)
	assert.False(t, types.IsErrNotEnoughVotingPowerSigned(err))
}

func TestVerifyCommitPowerClaimed(t *testing.T) {
	keys := factory.GenPrivKeys(4)
	vals := keys.ToValidators(10, 0)

	assert.NoError(t, types.VerifyCommitPowerClaimed(vals, signedHeader(keys, vals, 0, 3).Commit))

	err := types.VerifyCommitPowerClaimed(vals, signedHeader(keys, vals, 0, 1).Commit)
	require.Error(t, err)
	var powerErr types.ErrNotEnoughVotingPowerSigned
	require.ErrorAs(t, err, &powerErr)
	assert.EqualValues(t, 10, powerErr.Got)
	assert.EqualValues(t, 26, powerErr.Needed)

	short := signedHeader(keys, vals, 0, 4).Commit
	short.Signatures = short.Signatures[:2]
	assert.Error(t, types.VerifyCommitPowerClaimed(vals, short))
}
