package factory

import (
	"crypto/sha256"
	"time"

	"github.com/tendermint/lightclient/crypto"
	"github.com/tendermint/lightclient/crypto/ed25519"
	"github.com/tendermint/lightclient/types"
)

// PrivKeys is a helper type for testing.
//
// It lets us simulate signing with many keys.  The main use case is to create
// a set, and call GenSignedHeader to get properly signed header for testing.
//
// You can set different weights of validators each time you call ToValidators,
// and can optionally extend the validator set later with Extend.
type PrivKeys []crypto.PrivKey

// GenPrivKeys produces an array of private keys to generate commits.
func GenPrivKeys(n int) PrivKeys {
	res := make(PrivKeys, n)
	for i := range res {
		res[i] = ed25519.GenPrivKey()
	}
	return res
}

// Extend adds n more keys (to remove, just take a slice).
func (pkz PrivKeys) Extend(n int) PrivKeys {
	extra := GenPrivKeys(n)
	return append(pkz, extra...)
}

// ChangeKeys drops the first delta keys and appends delta fresh ones.
func (pkz PrivKeys) ChangeKeys(delta int) PrivKeys {
	newKeys := pkz[delta:]
	return newKeys.Extend(delta)
}

// ToValidators produces a valset from the set of keys.
// The first key has weight `init` and it increases by `inc` every step
// so we can have all the same weight, or a simple linear distribution
// (should be enough for testing).
func (pkz PrivKeys) ToValidators(init, inc int64) *types.ValidatorSet {
	res := make([]*types.Validator, len(pkz))
	for i, k := range pkz {
		res[i] = types.NewValidator(k.PubKey(), init+int64(i)*inc)
	}
	return types.NewValidatorSet(res)
}

// SignHeader properly signs the header with all keys from first to last exclusive.
// Keys that are not part of valSet are skipped.
func (pkz PrivKeys) SignHeader(header *types.Header, valSet *types.ValidatorSet, first, last int) *types.Commit {
	commitSigs := make([]types.CommitSig, valSet.Size())
	for i := range commitSigs {
		commitSigs[i] = types.NewCommitSigAbsent()
	}

	blockID := types.BlockID{
		Hash:          header.Hash(),
		PartSetHeader: types.PartSetHeader{Total: 1, Hash: Hash("parts")},
	}

	// Fill in the votes we want.
	for i := first; i < last && i < len(pkz); i++ {
		vote := MakeVote(header, valSet, pkz[i], blockID)
		if vote == nil {
			continue
		}
		commitSigs[vote.ValidatorIndex] = types.CommitSig{
			BlockIDFlag:      types.BlockIDFlagCommit,
			ValidatorAddress: vote.ValidatorAddress,
			Timestamp:        vote.Timestamp,
			Signature:        vote.Signature,
		}
	}

	return &types.Commit{
		Height:     header.Height,
		Round:      1,
		BlockID:    blockID,
		Signatures: commitSigs,
	}
}

// MakeVote returns a precommit for blockID signed by key, or nil when key
// is not a member of valset.
func MakeVote(header *types.Header, valset *types.ValidatorSet, key crypto.PrivKey, blockID types.BlockID) *types.Vote {
	addr := key.PubKey().Address()
	idx, _ := valset.GetByAddress(addr)
	if idx < 0 {
		return nil
	}
	vote := &types.Vote{
		ValidatorAddress: addr,
		ValidatorIndex:   idx,
		Height:           header.Height,
		Round:            1,
		Timestamp:        header.Time.Add(time.Second),
		Type:             types.PrecommitType,
		BlockID:          blockID,
	}

	// Sign it
	signBytes := types.VoteSignBytes(header.ChainID, vote)
	sig, err := key.Sign(signBytes)
	if err != nil {
		panic(err)
	}

	vote.Signature = sig

	return vote
}

// GenHeader builds an unsigned header whose validator hashes commit to valset
// and nextValset.
func GenHeader(chainID string, height int64, bTime time.Time,
	valset, nextValset *types.ValidatorSet, appHash, consHash, resHash []byte) *types.Header {

	return &types.Header{
		Version: types.Consensus{Block: types.BlockProtocol, App: 0},
		ChainID: chainID,
		Height:  height,
		Time:    bTime,
		// LastBlockID
		// LastCommitHash
		ValidatorsHash:     valset.Hash(),
		NextValidatorsHash: nextValset.Hash(),
		DataHash:           Hash("data"),
		AppHash:            appHash,
		ConsensusHash:      consHash,
		LastResultsHash:    resHash,
		ProposerAddress:    valset.Validators[0].Address,
	}
}

// GenSignedHeader calls GenHeader and SignHeader and combines them into a SignedHeader.
func (pkz PrivKeys) GenSignedHeader(chainID string, height int64, bTime time.Time,
	valset, nextValset *types.ValidatorSet, appHash, consHash, resHash []byte, first, last int) *types.SignedHeader {

	header := GenHeader(chainID, height, bTime, valset, nextValset, appHash, consHash, resHash)
	return &types.SignedHeader{
		Header: header,
		Commit: pkz.SignHeader(header, valset, first, last),
	}
}

// GenSignedHeaderLastBlockID calls GenHeader and SignHeader and combines them into a SignedHeader.
func (pkz PrivKeys) GenSignedHeaderLastBlockID(chainID string, height int64, bTime time.Time,
	valset, nextValset *types.ValidatorSet, appHash, consHash, resHash []byte, first, last int,
	lastBlockID types.BlockID) *types.SignedHeader {

	header := GenHeader(chainID, height, bTime, valset, nextValset, appHash, consHash, resHash)
	header.LastBlockID = lastBlockID
	return &types.SignedHeader{
		Header: header,
		Commit: pkz.SignHeader(header, valset, first, last),
	}
}

// Hash returns the sha256 of s, used to fill header hashes.
func Hash(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}
