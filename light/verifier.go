package light

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	tmmath "github.com/tendermint/lightclient/libs/math"
	"github.com/tendermint/lightclient/types"
)

var (
	// DefaultTrustLevel - new header can be trusted if at least one correct
	// validator signed it.
	DefaultTrustLevel = tmmath.Fraction{Numerator: 1, Denominator: 3}
)

// Verdict is the outcome of a single verification step.
type Verdict uint8

const (
	// VerdictSuccess - the untrusted block can be trusted.
	VerdictSuccess Verdict = iota
	// VerdictNotEnoughTrust - the block may be valid, but too little of the
	// trusted validator set signed it. A closer block must be verified first.
	VerdictNotEnoughTrust
	// VerdictInvalid - the block is invalid, or the trusted block can no longer
	// be used.
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictNotEnoughTrust:
		return "not_enough_trust"
	case VerdictInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

// VerdictOf classifies an error returned by Verify.
func VerdictOf(err error) Verdict {
	if err == nil {
		return VerdictSuccess
	}
	var e ErrNewValSetCantBeTrusted
	if errors.As(err, &e) {
		return VerdictNotEnoughTrust
	}
	return VerdictInvalid
}

// Verifier decides whether untrusted can be trusted given trusted.
type Verifier interface {
	Verify(trusted, untrusted *types.LightBlock, opts Options) error
}

// ProdVerifier is the Verifier backed by Verify.
type ProdVerifier struct{}

var _ Verifier = ProdVerifier{}

// Verify calls Verify.
func (ProdVerifier) Verify(trusted, untrusted *types.LightBlock, opts Options) error {
	return Verify(trusted, untrusted, opts)
}

// VerifyNonAdjacent verifies non-adjacent untrusted light block against
// trusted. It ensures that:
//
//	a) trusted can still be trusted (if not, ErrOldHeaderExpired is returned)
//	b) untrusted is valid (if not, ErrInvalidHeader is returned)
//	c) opts.TrustLevel ([1/3, 1]) of trusted.NextValidatorSet signed correctly
//	   (if not, ErrNewValSetCantBeTrusted is returned)
//	d) more than 2/3 of untrusted.ValidatorSet have signed untrusted
//	   (otherwise, ErrInvalidHeader is returned)
//	e) blocks are non-adjacent.
//
// opts.MaxClockDrift defines how much untrusted.Time can drift into the
// future.
func VerifyNonAdjacent(trusted, untrusted *types.LightBlock, opts Options) error {
	if untrusted.Height == trusted.Height+1 {
		return errors.New("headers must be non adjacent in height")
	}

	if HeaderExpired(trusted.SignedHeader, opts.TrustingPeriod, opts.Now) {
		return ErrOldHeaderExpired{trusted.Time.Add(opts.TrustingPeriod), opts.Now}
	}

	if err := verifyNewHeaderAndVals(untrusted, trusted, opts.Now, opts.MaxClockDrift); err != nil {
		return ErrInvalidHeader{err}
	}

	if trusted.NextValidatorSet == nil {
		return ErrInvalidHeader{invalid(ErrMissingNextValidatorSet,
			"trusted light block #%d has no next validator set", trusted.Height)}
	}

	// A commit whose signers cannot reach 2/3 of the new set is never valid,
	// whatever the overlap with the trusted set.
	if err := types.VerifyCommitPowerClaimed(untrusted.ValidatorSet, untrusted.Commit); err != nil {
		return ErrInvalidHeader{commitReason(err)}
	}

	// Ensure that +`trustLevel` (default 1/3) or more of last trusted validators signed correctly.
	err := types.VerifyCommitLightTrusting(trusted.ChainID, trusted.NextValidatorSet, untrusted.Commit, opts.TrustLevel)
	if err != nil {
		var e types.ErrNotEnoughVotingPowerSigned
		if errors.As(err, &e) {
			return ErrNewValSetCantBeTrusted{e}
		}
		return ErrInvalidHeader{invalidErr(ErrInvalidCommit, err)}
	}

	// Ensure that +2/3 of new validators signed correctly.
	//
	// NOTE: this should always be the last check because untrustedVals can be
	// intentionally made very large to DOS the light client. not the case for
	// VerifyAdjacent, where validator set is known in advance.
	if err := types.VerifyCommitLight(trusted.ChainID, untrusted.ValidatorSet, untrusted.Commit.BlockID,
		untrusted.Height, untrusted.Commit); err != nil {
		return ErrInvalidHeader{commitReason(err)}
	}

	return nil
}

// VerifyAdjacent verifies directly adjacent untrusted light block against
// trusted. It ensures that:
//
//	a) trusted can still be trusted (if not, ErrOldHeaderExpired is returned)
//	b) untrusted is valid (if not, ErrInvalidHeader is returned)
//	c) untrusted.ValidatorsHash equals trusted.NextValidatorsHash
//	d) more than 2/3 of new validators (untrusted.ValidatorSet) have signed
//	   untrusted (otherwise, ErrInvalidHeader is returned)
//	e) blocks are adjacent.
//
// opts.MaxClockDrift defines how much untrusted.Time can drift into the
// future.
func VerifyAdjacent(trusted, untrusted *types.LightBlock, opts Options) error {
	if untrusted.Height != trusted.Height+1 {
		return errors.New("headers must be adjacent in height")
	}

	if HeaderExpired(trusted.SignedHeader, opts.TrustingPeriod, opts.Now) {
		return ErrOldHeaderExpired{trusted.Time.Add(opts.TrustingPeriod), opts.Now}
	}

	if err := verifyNewHeaderAndVals(untrusted, trusted, opts.Now, opts.MaxClockDrift); err != nil {
		return ErrInvalidHeader{err}
	}

	// Check the validator hashes are the same
	if !bytes.Equal(untrusted.ValidatorsHash, trusted.NextValidatorsHash) {
		return ErrInvalidHeader{invalid(ErrUnexpectedValidatorSet,
			"expected old header next validators (%X) to match those from new header (%X)",
			trusted.NextValidatorsHash,
			untrusted.ValidatorsHash,
		)}
	}

	// Ensure that +2/3 of new validators signed correctly.
	if err := types.VerifyCommitLight(trusted.ChainID, untrusted.ValidatorSet, untrusted.Commit.BlockID,
		untrusted.Height, untrusted.Commit); err != nil {
		return ErrInvalidHeader{commitReason(err)}
	}

	return nil
}

// Verify combines both VerifyAdjacent and VerifyNonAdjacent functions.
//
// nil means untrusted can be trusted. ErrNewValSetCantBeTrusted means not
// enough of the trusted validators signed it. Anything else, including
// ErrOldHeaderExpired, means untrusted must not be trusted; use VerdictOf to
// classify.
func Verify(trusted, untrusted *types.LightBlock, opts Options) error {
	if trusted == nil || trusted.SignedHeader == nil || trusted.Header == nil {
		return errors.New("nil trusted light block")
	}
	if untrusted == nil || untrusted.SignedHeader == nil || untrusted.Header == nil || untrusted.Commit == nil {
		return ErrInvalidHeader{invalid(ErrMalformedHeader, "nil untrusted light block or header")}
	}

	if untrusted.Height != trusted.Height+1 {
		return VerifyNonAdjacent(trusted, untrusted, opts)
	}

	return VerifyAdjacent(trusted, untrusted, opts)
}

func verifyNewHeaderAndVals(
	untrusted *types.LightBlock,
	trusted *types.LightBlock,
	now time.Time,
	maxClockDrift time.Duration) error {

	if untrusted.ValidatorSet == nil {
		return invalid(ErrValidatorSetMismatch, "no validator set supplied at height %d", untrusted.Height)
	}
	if !bytes.Equal(untrusted.ValidatorsHash, untrusted.ValidatorSet.Hash()) {
		return invalid(ErrValidatorSetMismatch,
			"expected new header validators (%X) to match those that were supplied (%X) at height %d",
			untrusted.ValidatorsHash,
			untrusted.ValidatorSet.Hash(),
			untrusted.Height,
		)
	}

	if err := untrusted.SignedHeader.ValidateBasic(trusted.ChainID); err != nil {
		return invalid(ErrMalformedHeader, "untrustedHeader.ValidateBasic failed: %w", err)
	}
	if err := untrusted.ValidatorSet.ValidateBasic(); err != nil {
		return invalid(ErrMalformedHeader, "invalid validator set: %w", err)
	}

	if untrusted.NextValidatorSet == nil {
		return invalid(ErrMissingNextValidatorSet, "no next validator set supplied at height %d", untrusted.Height)
	}
	if !bytes.Equal(untrusted.NextValidatorsHash, untrusted.NextValidatorSet.Hash()) {
		return invalid(ErrValidatorSetMismatch,
			"expected new header next validators (%X) to match those that were supplied (%X) at height %d",
			untrusted.NextValidatorsHash,
			untrusted.NextValidatorSet.Hash(),
			untrusted.Height,
		)
	}

	if !untrusted.Time.After(trusted.Time) {
		return invalid(ErrNonMonotonicBftTime,
			"expected new header time %v to be after old header time %v",
			untrusted.Time,
			trusted.Time)
	}

	if untrusted.Height <= trusted.Height {
		return invalid(ErrNonIncreasingHeight,
			"expected new header height %d to be greater than one of old header %d",
			untrusted.Height,
			trusted.Height)
	}

	if !untrusted.Time.Before(now.Add(maxClockDrift)) {
		return invalid(ErrHeaderFromFuture,
			"new header has a time from the future %v (now: %v; max clock drift: %v)",
			untrusted.Time,
			now,
			maxClockDrift)
	}

	return nil
}

// ValidateTrustLevel checks that trustLevel is within the allowed range [1/3,
// 1]. If not, it returns an error. 1/3 is the minimum amount of trust needed
// which does not break the security model.
func ValidateTrustLevel(lvl tmmath.Fraction) error {
	if lvl.Numerator*3 < lvl.Denominator || // < 1/3
		lvl.Numerator > lvl.Denominator || // > 1
		lvl.Denominator == 0 {
		return fmt.Errorf("trustLevel must be within [1/3, 1], given %v", lvl)
	}
	return nil
}

// HeaderExpired return true if the given header expired.
func HeaderExpired(h *types.SignedHeader, trustingPeriod time.Duration, now time.Time) bool {
	expirationTime := h.Time.Add(trustingPeriod)
	return !expirationTime.After(now)
}

// VerifyBackwards verifies an untrusted header with a height one less than
// that of an adjacent trusted header. It ensures that:
//
//	a) untrusted header is valid
//	b) untrusted header has a time before the trusted header
//	c) that the LastBlockID hash of the trusted header is the same as the hash
//	   of the trusted header
//
// For any of these cases ErrInvalidHeader is returned.
//
// Client never calls it: verification only moves forwards from a trusted block.
func VerifyBackwards(untrustedHeader, trustedHeader *types.Header) error {
	if err := untrustedHeader.ValidateBasic(); err != nil {
		return ErrInvalidHeader{invalidErr(ErrMalformedHeader, err)}
	}

	if untrustedHeader.ChainID != trustedHeader.ChainID {
		return ErrInvalidHeader{invalid(ErrMalformedHeader, "header belongs to another chain")}
	}

	if !untrustedHeader.Time.Before(trustedHeader.Time) {
		return ErrInvalidHeader{
			invalid(ErrNonMonotonicBftTime, "expected older header time %v to be before new header time %v",
				untrustedHeader.Time,
				trustedHeader.Time)}
	}

	if !bytes.Equal(untrustedHeader.Hash(), trustedHeader.LastBlockID.Hash) {
		return ErrInvalidHeader{
			invalid(ErrLastBlockIDMismatch, "older header hash %X does not match trusted header's last block %X",
				untrustedHeader.Hash(),
				trustedHeader.LastBlockID.Hash)}
	}

	return nil
}
