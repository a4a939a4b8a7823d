package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LightBlock is a SignedHeader together with the validator set that signed
// it and the validator set announced for the next height.
// It is the basis of the light client
type LightBlock struct {
	*SignedHeader    `json:"signed_header"`
	ValidatorSet     *ValidatorSet `json:"validator_set"`
	NextValidatorSet *ValidatorSet `json:"next_validator_set,omitempty"`

	// Provider is the ID of the peer the block was fetched from. It is not
	// part of the block and is not checked by ValidateBasic.
	Provider string `json:"provider,omitempty"`
}

// ValidateBasic checks that the data is correct and consistent
//
// This does no verification of the signatures
func (lb LightBlock) ValidateBasic(chainID string) error {
	if lb.SignedHeader == nil {
		return errors.New("missing signed header")
	}
	if lb.ValidatorSet == nil {
		return errors.New("missing validator set")
	}

	if err := lb.SignedHeader.ValidateBasic(chainID); err != nil {
		return fmt.Errorf("invalid signed header: %w", err)
	}
	if err := lb.ValidatorSet.ValidateBasic(); err != nil {
		return fmt.Errorf("invalid validator set: %w", err)
	}

	// make sure the validator set is consistent with the header
	if valSetHash := lb.ValidatorSet.Hash(); !bytes.Equal(lb.SignedHeader.ValidatorsHash, valSetHash) {
		return fmt.Errorf("expected validator hash of header to match validator set hash (%X != %X)",
			lb.SignedHeader.ValidatorsHash, valSetHash,
		)
	}

	if lb.NextValidatorSet != nil {
		if err := lb.NextValidatorSet.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid next validator set: %w", err)
		}
		if nextHash := lb.NextValidatorSet.Hash(); !bytes.Equal(lb.SignedHeader.NextValidatorsHash, nextHash) {
			return fmt.Errorf("expected next validator hash of header to match next validator set hash (%X != %X)",
				lb.SignedHeader.NextValidatorsHash, nextHash,
			)
		}
	}

	return nil
}

// String returns a string representation of the LightBlock
func (lb LightBlock) String() string {
	return lb.StringIndented("")
}

// StringIndented returns an indented string representation of the LightBlock
//
// SignedHeader
// ValidatorSet
func (lb LightBlock) StringIndented(indent string) string {
	return fmt.Sprintf(`LightBlock{
%s  %v
%s  %v
%s}`,
		indent, lb.SignedHeader.StringIndented(indent+"  "),
		indent, lb.ValidatorSet.StringIndented(indent+"  "),
		indent)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (lb *LightBlock) MarshalZerologObject(e *zerolog.Event) {
	if lb == nil || lb.SignedHeader == nil {
		return
	}
	e.Int64("height", lb.Height)
	e.Str("hash", lb.Hash().String())
	e.Time("time", lb.Time)
	if lb.Provider != "" {
		e.Str("provider", lb.Provider)
	}
}
