package light

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/tendermint/lightclient/libs/log"
	"github.com/tendermint/lightclient/light/provider"
	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

const defaultPruningSize = 1000

// Option sets a parameter for the light client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics the client reports to. Default: NopMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithScheduler replaces BasicBisectingSchedule as the pivot policy.
func WithScheduler(s Scheduler) Option {
	return func(c *Client) {
		c.scheduler = s
	}
}

// WithVerifier replaces ProdVerifier.
func WithVerifier(v Verifier) Option {
	return func(c *Client) {
		c.verifier = v
	}
}

// WithClock replaces SystemClock as the source of Options.Now.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// PruningSize option sets the maximum amount of light blocks that a store
// keeps after a target has been verified. Default: 1000. A pruning size of 0
// will not prune the store at all.
func PruningSize(h uint16) Option {
	return func(c *Client) {
		c.pruningSize = h
	}
}

// Client verifies light blocks of a single chain, obtained from a single
// provider, by bisecting between the highest trusted block of a session's
// store and the target height.
//
// A Client holds no per-session state and can serve several sessions at
// once, each with its own State.
type Client struct {
	chainID     string
	opts        Options
	primary     provider.Provider
	verifier    Verifier
	scheduler   Scheduler
	clock       Clock
	pruningSize uint16

	metrics *Metrics
	logger  log.Logger
}

// NewClient returns a new light client. opts.Now is ignored: each call to
// VerifyToTarget reads the client's clock once.
//
// See all Option(s) for the additional configuration.
func NewClient(chainID string, opts Options, primary provider.Provider, options ...Option) (*Client, error) {
	if chainID == "" {
		return nil, errors.New("empty chain id")
	}
	if primary == nil {
		return nil, errors.New("nil provider")
	}
	if err := opts.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	c := &Client{
		chainID:     chainID,
		opts:        opts,
		primary:     primary,
		verifier:    ProdVerifier{},
		scheduler:   BasicBisectingSchedule,
		clock:       SystemClock{},
		pruningSize: defaultPruningSize,
		metrics:     NopMetrics(),
		logger:      log.NewNopLogger(),
	}

	for _, o := range options {
		o(c)
	}

	if c.verifier == nil || c.scheduler == nil || c.clock == nil || c.metrics == nil || c.logger == nil {
		return nil, errors.New("nil verifier, scheduler, clock, metrics or logger")
	}

	return c, nil
}

// ChainID returns the chain ID the light client was configured with.
func (c *Client) ChainID() string {
	return c.chainID
}

// Primary returns the provider light blocks are fetched from.
func (c *Client) Primary() provider.Provider {
	return c.primary
}

// Bootstrap seeds s with the light block described by trustOptions. The block
// is fetched from the primary and must match the trusted hash, carry a
// commit signed by +2/3 of its validators and lie within the trusting period.
//
// It is stored as trusted and returned.
func (c *Client) Bootstrap(ctx context.Context, trustOptions TrustOptions, s store.Store) (*types.LightBlock, error) {
	if err := trustOptions.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid TrustOptions: %w", err)
	}

	// 1) Fetch and verify the light block.
	l, err := c.fetch(ctx, trustOptions.Height)
	if err != nil {
		return nil, err
	}

	if err := l.ValidateBasic(c.chainID); err != nil {
		return nil, err
	}

	if !bytes.Equal(l.Hash(), trustOptions.Hash) {
		return nil, fmt.Errorf("expected header's hash %X, but got %X", trustOptions.Hash, l.Hash())
	}

	if l.NextValidatorSet == nil {
		return nil, fmt.Errorf("%w at height %d", ErrMissingNextValidatorSet, l.Height)
	}

	now := c.clock.Now()
	if HeaderExpired(l.SignedHeader, trustOptions.Period, now) {
		return nil, ErrOldHeaderExpired{l.Time.Add(trustOptions.Period), now}
	}

	// 2) Ensure that +2/3 of validators signed correctly.
	err = types.VerifyCommitLight(c.chainID, l.ValidatorSet, l.Commit.BlockID, l.Height, l.Commit)
	if err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}

	// 3) Persist it.
	if err := s.Insert(l, store.StatusTrusted); err != nil {
		return nil, fmt.Errorf("failed to save trusted light block: %w", err)
	}
	c.metrics.LatestTrustedHeight.Set(float64(l.Height))
	c.logger.Info("Bootstrapped from trusted light block", "height", l.Height, "hash", l.Hash())

	return l, nil
}

// VerifyToHighest fetches the latest light block from the primary and
// verifies it. See VerifyToTarget.
func (c *Client) VerifyToHighest(ctx context.Context, state *State) (*types.LightBlock, error) {
	if state == nil || state.Store == nil {
		return nil, errors.New("nil state or store")
	}

	latest, err := c.fetch(ctx, 0)
	if err != nil {
		return nil, err
	}

	if err := state.Store.Insert(latest, store.StatusUnverified); err != nil {
		return nil, err
	}

	return c.VerifyToTarget(ctx, latest.Height, state)
}

// VerifyToTarget establishes trust in the light block at target, starting
// from the highest trusted block in state's store below it.
//
// Heights still to verify are kept on a stack. The top height is verified
// against the highest trusted block below it. On success the block is
// trusted and popped; when too little of the trusted validator set signed it,
// a pivot chosen by the scheduler is pushed on top of it; an invalid block
// aborts verification.
//
// Every block trusted on the way is recorded in state's trace for target,
// replacing the trace of an earlier run.
//
// If target is already trusted it is returned without contacting the
// provider. If no trusted block exists below target, ErrNoTrustedAnchor is
// returned. An invalid block or a failed fetch is reported as
// ErrVerificationFailed. A canceled ctx is checked before every step, and
// blocks trusted so far stay in the store.
func (c *Client) VerifyToTarget(ctx context.Context, target int64, state *State) (*types.LightBlock, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target height must be positive, got %d", target)
	}
	if state == nil || state.Store == nil {
		return nil, errors.New("nil state or store")
	}

	if lb, ok, err := c.trusted(state.Store, target); err != nil || ok {
		return lb, err
	}

	state.begin(target)

	opts := c.opts
	opts.Now = c.clock.Now()

	var (
		pending = []int64{target}
		steps   = 0
	)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		height := pending[len(pending)-1]

		// A pivot may already be trusted after an earlier target.
		lb, ok, err := c.trusted(state.Store, height)
		if err != nil {
			state.seal(target)
			return nil, err
		}
		if ok {
			pending = pending[:len(pending)-1]
			if height == target {
				state.seal(target)
				return lb, nil
			}
			continue
		}

		anchor, err := state.Store.HighestTrustedBelowOrAt(height - 1)
		if err != nil {
			if errors.Is(err, store.ErrLightBlockNotFound) {
				return nil, fmt.Errorf("%w: height %d", ErrNoTrustedAnchor, height)
			}
			return nil, fmt.Errorf("failed to load trusted light block below %d: %w", height, err)
		}

		candidate, err := c.candidate(ctx, state.Store, height)
		if err != nil {
			return nil, ErrVerificationFailed{From: anchor.Height, To: height, Reason: err}
		}

		c.logger.Debug("Verify light block",
			"trustedHeight", anchor.Height,
			"trustedHash", anchor.Hash(),
			"newHeight", candidate.Height,
			"newHash", candidate.Hash())

		steps++
		err = c.verifier.Verify(anchor, candidate, opts)
		verdict := VerdictOf(err)
		c.metrics.Verifications.With("verdict", verdict.String()).Add(1)

		switch verdict {
		case VerdictSuccess:
			if err := state.Store.Insert(candidate, store.StatusTrusted); err != nil {
				return nil, fmt.Errorf("failed to save trusted light block: %w", err)
			}
			state.appendTrace(target, candidate)
			c.metrics.LatestTrustedHeight.Set(float64(candidate.Height))
			pending = pending[:len(pending)-1]

			if height == target {
				state.seal(target)
				c.metrics.StepsPerTarget.Observe(float64(steps))
				c.logger.Info("Verified light block", "height", target, "hash", candidate.Hash(), "steps", steps)
				c.prune(state.Store)
				return candidate, nil
			}

		case VerdictNotEnoughTrust:
			pivot := c.scheduler(anchor.Height, height)
			if !validPivot(pivot, anchor.Height, height) {
				return nil, fmt.Errorf("scheduler returned height %d outside of (%d, %d)", pivot, anchor.Height, height)
			}
			c.logger.Debug("Cannot trust light block yet, bisecting",
				"trustedHeight", anchor.Height, "newHeight", height, "pivot", pivot, "reason", err)
			c.metrics.Bisections.Add(1)
			pending = append(pending, pivot)

		default:
			c.logger.Error("Light block is invalid",
				"trustedHeight", anchor.Height, "newHeight", height, "err", err)
			// Both depend on the local clock, not on the candidate.
			if !errors.Is(err, ErrTrustedStateExpired) && !errors.Is(err, ErrHeaderFromFuture) {
				if markErr := state.Store.MarkFailed(height, err.Error()); markErr != nil {
					c.logger.Error("Failed to mark light block as failed", "height", height, "err", markErr)
				}
			}
			state.seal(target)
			return nil, ErrVerificationFailed{From: anchor.Height, To: height, Reason: err}
		}
	}

	// unreachable: target is popped only on success
	return nil, fmt.Errorf("verification of %d ended without a verdict", target)
}

// trusted reports whether the block at height is trusted. A failed block is
// returned as ErrVerificationFailed.
func (c *Client) trusted(s store.Store, height int64) (*types.LightBlock, bool, error) {
	e, err := s.Get(height)
	switch {
	case errors.Is(err, store.ErrLightBlockNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to load light block #%d: %w", height, err)
	}

	switch e.Status {
	case store.StatusTrusted:
		return e.LightBlock, true, nil
	case store.StatusFailed:
		var from int64
		if anchor, err := s.HighestTrustedBelowOrAt(height - 1); err == nil {
			from = anchor.Height
		}
		return nil, false, ErrVerificationFailed{
			From:   from,
			To:     height,
			Reason: fmt.Errorf("light block previously failed: %s", e.Reason),
		}
	default:
		return nil, false, nil
	}
}

// candidate returns the block at height, from the store if an earlier step
// already fetched it, otherwise from the primary.
func (c *Client) candidate(ctx context.Context, s store.Store, height int64) (*types.LightBlock, error) {
	if e, err := s.Get(height); err == nil && e.LightBlock != nil {
		return e.LightBlock, nil
	}

	lb, err := c.fetch(ctx, height)
	if err != nil {
		return nil, err
	}
	if err := s.Insert(lb, store.StatusUnverified); err != nil {
		return nil, fmt.Errorf("failed to save light block: %w", err)
	}
	return lb, nil
}

// fetch gets the block at height (0 - the latest) from the primary and tags
// it with the primary's ID.
func (c *Client) fetch(ctx context.Context, height int64) (*types.LightBlock, error) {
	c.metrics.Fetches.Add(1)

	lb, err := c.primary.LightBlock(ctx, height)
	if err != nil {
		c.logger.Debug("Failed to fetch light block", "height", height, "primary", c.primary.ID(), "err", err)
		return nil, err
	}
	if lb == nil || lb.SignedHeader == nil || lb.Header == nil {
		return nil, provider.ErrBadLightBlock{Reason: errors.New("nil light block")}
	}
	if height != 0 && lb.Height != height {
		return nil, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("height %d responded doesn't match height %d requested", lb.Height, height),
		}
	}
	if lb.Provider == "" {
		lb.Provider = c.primary.ID()
	}
	return lb, nil
}

func (c *Client) prune(s store.Store) {
	if c.pruningSize == 0 {
		return
	}
	if err := s.Prune(c.pruningSize); err != nil {
		c.logger.Error("Failed to prune store", "err", err)
	}
}
