package types_test

import (
	"bytes"
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/crypto/ed25519"
	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/types"
)

func TestValidatorSetBasic(t *testing.T) {
	// empty or nil validator lists are allowed,
	// but attempting to IncrementProposerPriority on them will panic.
	vset := types.NewValidatorSet([]*types.Validator{})
	assert.Panics(t, func() { vset.IncrementProposerPriority(1) })

	vset = types.NewValidatorSet(nil)
	assert.Panics(t, func() { vset.IncrementProposerPriority(1) })

	assert.EqualValues(t, vset, vset.Copy())
	assert.False(t, vset.HasAddress([]byte("some val")))
	idx, val := vset.GetByAddress([]byte("some val"))
	assert.EqualValues(t, -1, idx)
	assert.Nil(t, val)
	addr, val := vset.GetByIndex(-100)
	assert.Nil(t, addr)
	assert.Nil(t, val)
	assert.Zero(t, vset.Size())
	assert.Equal(t, int64(0), vset.TotalVotingPower())
	assert.Nil(t, vset.GetProposer())
	assert.Error(t, vset.ValidateBasic())

	// add
	val = types.NewValidator(ed25519.GenPrivKey().PubKey(), 10)
	vset = types.NewValidatorSet([]*types.Validator{val})

	assert.True(t, vset.HasAddress(val.Address))
	idx, _ = vset.GetByAddress(val.Address)
	assert.EqualValues(t, 0, idx)
	addr, _ = vset.GetByIndex(0)
	assert.Equal(t, []byte(val.Address), addr)
	assert.Equal(t, 1, vset.Size())
	assert.Equal(t, val.VotingPower, vset.TotalVotingPower())
	assert.NotNil(t, vset.Hash())
	assert.Equal(t, val.Address, vset.GetProposer().Address)
	assert.NoError(t, vset.ValidateBasic())
}

func TestValidatorSetOrdering(t *testing.T) {
	keys := factory.GenPrivKeys(6)
	vals := keys.ToValidators(1, 3)

	// descending voting power, ties broken by ascending address
	sorted := sort.SliceIsSorted(vals.Validators, func(i, j int) bool {
		a, b := vals.Validators[i], vals.Validators[j]
		if a.VotingPower == b.VotingPower {
			return bytes.Compare(a.Address, b.Address) < 0
		}
		return a.VotingPower > b.VotingPower
	})
	assert.True(t, sorted)
	assert.EqualValues(t, 16, vals.Validators[0].VotingPower)

	same := keys.ToValidators(5, 0)
	for i := 1; i < same.Size(); i++ {
		assert.Equal(t, -1, bytes.Compare(same.Validators[i-1].Address, same.Validators[i].Address))
	}
}

func TestValidatorSetHashIgnoresPriority(t *testing.T) {
	vals := factory.GenPrivKeys(4).ToValidators(10, 0)
	h := vals.Hash()

	vals.IncrementProposerPriority(3)
	assert.Equal(t, h, vals.Hash())

	changed := vals.Copy()
	changed.Validators[0].VotingPower++
	assert.NotEqual(t, h, changed.Hash())
}

func TestValidatorSetRejectsDuplicates(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey()
	assert.Panics(t, func() {
		types.NewValidatorSet([]*types.Validator{types.NewValidator(pk, 1), types.NewValidator(pk, 2)})
	})
	assert.Panics(t, func() {
		types.NewValidatorSet([]*types.Validator{types.NewValidator(pk, 0)})
	})
	assert.Panics(t, func() {
		types.NewValidatorSet([]*types.Validator{types.NewValidator(pk, types.MaxTotalVotingPower+1)})
	})
}

func TestProposerSelectionRotates(t *testing.T) {
	vals := factory.GenPrivKeys(3).ToValidators(10, 0)

	seen := make(map[string]int)
	for i := 0; i < 30; i++ {
		seen[vals.GetProposer().Address.String()]++
		vals.IncrementProposerPriority(1)
	}
	require.Len(t, seen, 3)
	for _, n := range seen {
		assert.Equal(t, 10, n)
	}
}

func TestValidatorSetJSON(t *testing.T) {
	vals := factory.GenPrivKeys(3).ToValidators(7, 2)

	bz, err := json.Marshal(vals)
	require.NoError(t, err)
	assert.Contains(t, string(bz), `"type":"tendermint/PubKeyEd25519"`)
	assert.Contains(t, string(bz), `"voting_power":"11"`)

	var got types.ValidatorSet
	require.NoError(t, json.Unmarshal(bz, &got))

	if diff := cmp.Diff(vals.Validators, got.Validators, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("validators mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, vals.Hash(), got.Hash())
	assert.Equal(t, vals.TotalVotingPower(), got.TotalVotingPower())
}

func TestValidatorSetFromExistingValidators(t *testing.T) {
	vals := factory.GenPrivKeys(4).ToValidators(5, 1)
	vals.IncrementProposerPriority(5)

	rebuilt, err := types.ValidatorSetFromExistingValidators(vals.Copy().Validators)
	require.NoError(t, err)
	assert.Equal(t, vals.Hash(), rebuilt.Hash())
	assert.NotNil(t, rebuilt.GetProposer())

	_, err = types.ValidatorSetFromExistingValidators(nil)
	assert.Error(t, err)

	bad := vals.Copy().Validators
	bad[0].Address = []byte("short")
	_, err = types.ValidatorSetFromExistingValidators(bad)
	assert.Error(t, err)
}
