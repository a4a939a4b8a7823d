package types

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tendermint/lightclient/crypto"
	tmbytes "github.com/tendermint/lightclient/libs/bytes"
)

// SignedMsgType is a type of signed message in the consensus.
type SignedMsgType int32

const (
	UnknownType SignedMsgType = 0
	// Votes
	PrevoteType   SignedMsgType = 1
	PrecommitType SignedMsgType = 2
)

var (
	ErrVoteInvalidValidatorAddress = errors.New("invalid validator address")
	ErrVoteInvalidSignature        = errors.New("invalid signature")
)

// Vote represents a prevote or precommit vote from validators for
// consensus. Light blocks only carry the precommits of a commit, so votes
// are only reconstructed from CommitSigs.
type Vote struct {
	Type             SignedMsgType  `json:"type"`
	Height           int64          `json:"height,string"`
	Round            int32          `json:"round"`
	BlockID          BlockID        `json:"block_id"` // zero if vote is nil.
	Timestamp        time.Time      `json:"timestamp"`
	ValidatorAddress crypto.Address `json:"validator_address"`
	ValidatorIndex   int32          `json:"validator_index"`
	Signature        []byte         `json:"signature"`
}

// VoteSignBytes returns the proto-encoding of the canonicalized Vote, for
// signing. The encoding is length-prefixed.
//
// See canonicalVoteBytes.
func VoteSignBytes(chainID string, vote *Vote) []byte {
	msg := canonicalVoteBytes(chainID, vote)

	bz := protowire.AppendVarint(make([]byte, 0, len(msg)+2), uint64(len(msg)))
	return append(bz, msg...)
}

// canonicalVoteBytes encodes a CanonicalVote:
//
//	type      1 varint
//	height    2 sfixed64
//	round     3 sfixed64
//	block_id  4 CanonicalBlockID, omitted for nil votes
//	timestamp 5 google.protobuf.Timestamp
//	chain_id  6 string
func canonicalVoteBytes(chainID string, vote *Vote) []byte {
	var bz []byte
	bz = appendVarintField(bz, 1, uint64(vote.Type))
	bz = appendSfixed64Field(bz, 2, vote.Height)
	bz = appendSfixed64Field(bz, 3, int64(vote.Round))
	if !vote.BlockID.IsNil() {
		bz = appendMessageField(bz, 4, canonicalBlockIDBytes(vote.BlockID))
	}
	bz = appendMessageField(bz, 5, encodeTimestamp(vote.Timestamp))
	if chainID != "" {
		bz = protowire.AppendTag(bz, 6, protowire.BytesType)
		bz = protowire.AppendString(bz, chainID)
	}
	return bz
}

func canonicalBlockIDBytes(blockID BlockID) []byte {
	var bz []byte
	bz = appendBytesField(bz, 1, blockID.Hash)
	bz = appendMessageField(bz, 2, blockID.PartSetHeader.encode())
	return bz
}

// Verify checks the vote signature against pubKey.
func (vote *Vote) Verify(chainID string, pubKey crypto.PubKey) error {
	if !tmbytes.HexBytes(pubKey.Address()).Equal(vote.ValidatorAddress) {
		return ErrVoteInvalidValidatorAddress
	}
	if !pubKey.VerifySignature(VoteSignBytes(chainID, vote), vote.Signature) {
		return ErrVoteInvalidSignature
	}
	return nil
}

// String returns a string representation of Vote.
//
// 1. validator index
// 2. first 6 bytes of validator address
// 3. height
// 4. round,
// 5. type byte
// 6. type string
// 7. first 6 bytes of block hash
// 8. first 6 bytes of signature
// 9. timestamp
func (vote *Vote) String() string {
	if vote == nil {
		return "nil-Vote"
	}
	var typeString string
	switch vote.Type {
	case PrevoteType:
		typeString = "Prevote"
	case PrecommitType:
		typeString = "Precommit"
	default:
		typeString = "Unknown"
	}

	return fmt.Sprintf("Vote{%v:%X %v/%02d/%v(%v) %X %X @ %s}",
		vote.ValidatorIndex,
		tmbytes.Fingerprint(vote.ValidatorAddress),
		vote.Height,
		vote.Round,
		int32(vote.Type),
		typeString,
		tmbytes.Fingerprint(vote.BlockID.Hash),
		tmbytes.Fingerprint(vote.Signature),
		vote.Timestamp.Format(time.RFC3339Nano),
	)
}
