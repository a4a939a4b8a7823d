package light

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendermint/lightclient/crypto"
	tmmath "github.com/tendermint/lightclient/libs/math"
)

const (
	// 10s should cover most of the clients.
	// References:
	// - http://vancouver-webpages.com/time/web.html
	// - https://blog.codinghorror.com/keeping-time-on-the-pc/
	defaultMaxClockDrift = 10 * time.Second

	defaultTrustingPeriod = 168 * time.Hour
)

// Options are the parameters of a single verification step.
type Options struct {
	// Fraction of the trusted validator set's power that must sign an
	// untrusted header for it to be trusted across a skip.
	TrustLevel tmmath.Fraction
	// A trusted header older than TrustingPeriod can no longer be used.
	TrustingPeriod time.Duration
	// How far into the future a header's time may be, relative to Now.
	MaxClockDrift time.Duration
	// Now is the reference time. The verifier never reads the wall clock.
	Now time.Time
}

// DefaultOptions returns options with DefaultTrustLevel, a one week trusting
// period and a 10s clock drift. Now is left unset.
func DefaultOptions() Options {
	return Options{
		TrustLevel:     DefaultTrustLevel,
		TrustingPeriod: defaultTrustingPeriod,
		MaxClockDrift:  defaultMaxClockDrift,
	}
}

// ValidateBasic performs basic validation.
func (o Options) ValidateBasic() error {
	if o.TrustingPeriod <= 0 {
		return errors.New("negative or zero trusting period")
	}
	if o.MaxClockDrift < 0 {
		return errors.New("negative max clock drift")
	}
	return ValidateTrustLevel(o.TrustLevel)
}

// TrustOptions are the trust parameters needed when a new light client
// connects to the network or when an existing light client that has been
// offline for longer than the trusting period connects to the network.
//
// The expectation is the user will get this information from a trusted source
// like a validator, a friend, or a secure website. A more user friendly
// solution with trust tradeoffs is that we establish an https based protocol
// with a default end point that populates this information. Also an on-chain
// registry of roots-of-trust (e.g. on the Cosmos Hub) seems likely in the
// future.
type TrustOptions struct {
	// tp: trusting period.
	//
	// Should be significantly less than the unbonding period (e.g. unbonding
	// period = 3 weeks, trusting period = 2 weeks).
	//
	// More specifically, trusting period + time needed to check headers + time
	// needed to report and punish misbehavior should be less than the unbonding
	// period.
	Period time.Duration

	// Header's Height and Hash must both be provided to force the trusting
	// of a particular header.
	Height int64
	Hash   []byte
}

// ValidateBasic performs basic validation.
func (opts TrustOptions) ValidateBasic() error {
	if opts.Period <= 0 {
		return errors.New("negative or zero period")
	}
	if opts.Height <= 0 {
		return errors.New("negative or zero height")
	}
	if len(opts.Hash) != crypto.HashSize {
		return fmt.Errorf("expected hash size to be %d bytes, got %d bytes",
			crypto.HashSize,
			len(opts.Hash),
		)
	}
	return nil
}
