package types

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tendermint/lightclient/crypto"
)

func makeBlockIDRandom() BlockID {
	return BlockID{
		Hash:          crypto.CRandBytes(crypto.HashSize),
		PartSetHeader: PartSetHeader{Total: 1, Hash: crypto.CRandBytes(crypto.HashSize)},
	}
}

func hashOf(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func testHeader() *Header {
	return &Header{
		Version:            Consensus{Block: BlockProtocol, App: 2},
		ChainID:            "chainId",
		Height:             3,
		Time:               time.Date(2019, 10, 13, 16, 14, 44, 0, time.UTC),
		LastBlockID:        makeBlockIDRandom(),
		LastCommitHash:     hashOf("last_commit_hash"),
		DataHash:           hashOf("data_hash"),
		ValidatorsHash:     hashOf("validators_hash"),
		NextValidatorsHash: hashOf("next_validators_hash"),
		ConsensusHash:      hashOf("consensus_hash"),
		AppHash:            hashOf("app_hash"),
		LastResultsHash:    hashOf("last_results_hash"),
		EvidenceHash:       hashOf("evidence_hash"),
		ProposerAddress:    crypto.AddressHash([]byte("proposer_address")),
	}
}

func TestHeaderHash(t *testing.T) {
	h := testHeader()
	first := h.Hash()
	require.Len(t, first, crypto.HashSize)
	assert.Equal(t, first, h.Hash(), "hash must be deterministic")

	// Every field contributes to the hash.
	mutations := map[string]func(h *Header){
		"ChainID":            func(h *Header) { h.ChainID = "other" },
		"Height":             func(h *Header) { h.Height++ },
		"Time":               func(h *Header) { h.Time = h.Time.Add(time.Nanosecond) },
		"LastBlockID":        func(h *Header) { h.LastBlockID = makeBlockIDRandom() },
		"ValidatorsHash":     func(h *Header) { h.ValidatorsHash = hashOf("x") },
		"NextValidatorsHash": func(h *Header) { h.NextValidatorsHash = hashOf("x") },
		"AppHash":            func(h *Header) { h.AppHash = hashOf("x") },
		"ProposerAddress":    func(h *Header) { h.ProposerAddress = crypto.AddressHash([]byte("x")) },
		"Version":            func(h *Header) { h.Version.App++ },
	}
	for name, mutate := range mutations {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			h := testHeader()
			base := h.Hash()
			mutate(h)
			assert.NotEqual(t, base, h.Hash())
		})
	}
}

func TestHeaderHashNilWithoutValidators(t *testing.T) {
	var nilHeader *Header
	assert.Nil(t, nilHeader.Hash())

	h := testHeader()
	h.ValidatorsHash = nil
	assert.Nil(t, h.Hash())
}

func TestHeaderValidateBasic(t *testing.T) {
	testCases := []struct {
		name      string
		malleate  func(*Header)
		expectErr bool
	}{
		{"valid header", func(*Header) {}, false},
		{"invalid block protocol", func(h *Header) { h.Version.Block = 1 }, true},
		{"chain id too long", func(h *Header) { h.ChainID = string(make([]byte, MaxChainIDLen+1)) }, true},
		{"negative height", func(h *Header) { h.Height = -1 }, true},
		{"zero height", func(h *Header) { h.Height = 0 }, true},
		{"bad last block id", func(h *Header) { h.LastBlockID.Hash = []byte("short") }, true},
		{"bad data hash", func(h *Header) { h.DataHash = []byte("short") }, true},
		{"bad proposer address", func(h *Header) { h.ProposerAddress = []byte("short") }, true},
		{"bad validators hash", func(h *Header) { h.ValidatorsHash = []byte("short") }, true},
		{"bad next validators hash", func(h *Header) { h.NextValidatorsHash = []byte("short") }, true},
		{"app hash of any length", func(h *Header) { h.AppHash = []byte("short") }, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := testHeader()
			tc.malleate(h)
			err := h.ValidateBasic()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommitSigValidateBasic(t *testing.T) {
	addr := crypto.AddressHash([]byte("validator"))
	testCases := []struct {
		name      string
		cs        CommitSig
		expectErr bool
	}{
		{"absent", NewCommitSigAbsent(), false},
		{"absent with address", CommitSig{BlockIDFlag: BlockIDFlagAbsent, ValidatorAddress: addr}, true},
		{"commit", CommitSig{BlockIDFlag: BlockIDFlagCommit, ValidatorAddress: addr, Signature: []byte("sig")}, false},
		{"commit without signature", CommitSig{BlockIDFlag: BlockIDFlagCommit, ValidatorAddress: addr}, true},
		{"commit with short address", CommitSig{BlockIDFlag: BlockIDFlagCommit, ValidatorAddress: []byte("a"), Signature: []byte("sig")}, true},
		{"oversized signature", CommitSig{BlockIDFlag: BlockIDFlagNil, ValidatorAddress: addr, Signature: make([]byte, MaxSignatureSize+1)}, true},
		{"unknown flag", CommitSig{BlockIDFlag: 9}, true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cs.ValidateBasic()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVoteSignBytesIsLengthPrefixed(t *testing.T) {
	vote := &Vote{
		Type:      PrecommitType,
		Height:    12345,
		Round:     2,
		BlockID:   makeBlockIDRandom(),
		Timestamp: time.Date(2017, 12, 25, 3, 0, 1, 234, time.UTC),
	}

	bz := VoteSignBytes("test_chain_id", vote)
	size, n := protowire.ConsumeVarint(bz)
	require.Greater(t, n, 0)
	assert.EqualValues(t, len(bz)-n, size)

	// The sign bytes cover the chain id.
	assert.NotEqual(t, bz, VoteSignBytes("other_chain_id", vote))

	// A nil vote leaves the block id out.
	nilVote := *vote
	nilVote.BlockID = BlockID{}
	assert.Less(t, len(VoteSignBytes("test_chain_id", &nilVote)), len(bz))
}

func TestCommitVoteSignBytesDifferPerValidator(t *testing.T) {
	blockID := makeBlockIDRandom()
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	commit := NewCommit(5, 0, blockID, []CommitSig{
		{BlockIDFlag: BlockIDFlagCommit, Timestamp: ts},
		{BlockIDFlag: BlockIDFlagCommit, Timestamp: ts.Add(time.Second)},
		{BlockIDFlag: BlockIDFlagNil, Timestamp: ts},
	})

	assert.NotEqual(t, commit.VoteSignBytes("c", 0), commit.VoteSignBytes("c", 1))
	assert.NotEqual(t, commit.VoteSignBytes("c", 0), commit.VoteSignBytes("c", 2))
	assert.Equal(t, BlockID{}, commit.GetVote(2).BlockID)
	assert.Equal(t, 3, commit.Size())
}

func TestCommitValidateBasic(t *testing.T) {
	addr := crypto.AddressHash([]byte("validator"))
	valid := func() *Commit {
		return NewCommit(3, 0, makeBlockIDRandom(), []CommitSig{
			{BlockIDFlag: BlockIDFlagCommit, ValidatorAddress: addr, Signature: []byte("sig")},
		})
	}

	require.NoError(t, valid().ValidateBasic())

	c := valid()
	c.Height = -1
	assert.Error(t, c.ValidateBasic())

	c = valid()
	c.Round = -1
	assert.Error(t, c.ValidateBasic())

	c = valid()
	c.BlockID = BlockID{}
	assert.Error(t, c.ValidateBasic())

	c = valid()
	c.Signatures = nil
	assert.Error(t, c.ValidateBasic())
}
