package light

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendermint/lightclient/types"
)

// Reasons a candidate light block is rejected as invalid. They are reachable
// from any verifier error with errors.Is.
var (
	ErrTrustedStateExpired     = errors.New("trusted state expired")
	ErrValidatorSetMismatch    = errors.New("validator set does not match header")
	ErrMalformedHeader         = errors.New("malformed header")
	ErrMissingNextValidatorSet = errors.New("missing next validator set")
	ErrNonMonotonicBftTime     = errors.New("header time is not after trusted time")
	ErrNonIncreasingHeight     = errors.New("header height is not above trusted height")
	ErrHeaderFromFuture        = errors.New("header time is from the future")
	ErrUnexpectedValidatorSet  = errors.New("validator set does not match trusted next validators")
	ErrInsufficientCommitPower = errors.New("insufficient commit power")
	ErrInvalidCommit           = errors.New("invalid commit")
	ErrLastBlockIDMismatch     = errors.New("header hash does not match last block id")
)

// ErrNoTrustedAnchor means the store holds no trusted light block below the
// height being verified. The caller must seed the store first.
var ErrNoTrustedAnchor = errors.New("no trusted light block below target height")

// ErrOldHeaderExpired means the old (trusted) header has expired according to
// the given trustingPeriod and current time. If so, the light client must be
// reset subjectively.
type ErrOldHeaderExpired struct {
	At  time.Time
	Now time.Time
}

func (e ErrOldHeaderExpired) Error() string {
	return fmt.Sprintf("old header has expired at %v (now: %v)", e.At, e.Now)
}

// Is makes ErrOldHeaderExpired match ErrTrustedStateExpired.
func (e ErrOldHeaderExpired) Is(target error) bool {
	return target == ErrTrustedStateExpired
}

// ErrNewValSetCantBeTrusted means the new validator set cannot be trusted
// because < 1/3rd (+trustLevel+) of the old validator set has signed.
type ErrNewValSetCantBeTrusted struct {
	Reason types.ErrNotEnoughVotingPowerSigned
}

func (e ErrNewValSetCantBeTrusted) Error() string {
	return fmt.Sprintf("cant trust new val set: %v", e.Reason)
}

// ErrInvalidHeader means the header either failed the basic validation or
// commit is not signed by 2/3+.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrInvalidHeader) Unwrap() error {
	return e.Reason
}

// ErrVerificationFailed means either sequential or skipping verification has
// failed to verify from header #1 to header #2 due to some reason.
type ErrVerificationFailed struct {
	From   int64
	To     int64
	Reason error
}

// Unwrap returns underlying reason.
func (e ErrVerificationFailed) Unwrap() error {
	return e.Reason
}

func (e ErrVerificationFailed) Error() string {
	return fmt.Sprintf(
		"verify from #%d to #%d failed: %v",
		e.From, e.To, e.Reason)
}

// invalidReason tags err with one of the sentinel reasons above while keeping
// err itself reachable through errors.As.
type invalidReason struct {
	kind error
	err  error
}

func invalid(kind error, format string, args ...interface{}) error {
	return invalidReason{kind: kind, err: fmt.Errorf(format, args...)}
}

func invalidErr(kind, err error) error {
	return invalidReason{kind: kind, err: err}
}

func (r invalidReason) Error() string {
	return fmt.Sprintf("%v: %v", r.kind, r.err)
}

func (r invalidReason) Is(target error) bool {
	return target == r.kind
}

func (r invalidReason) Unwrap() error {
	return r.err
}

// commitReason classifies an error returned by commit verification.
func commitReason(err error) error {
	if types.IsErrNotEnoughVotingPowerSigned(err) {
		return invalidErr(ErrInsufficientCommitPower, err)
	}
	return invalidErr(ErrInvalidCommit, err)
}
