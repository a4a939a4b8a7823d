package light_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/libs/log"
	"github.com/tendermint/lightclient/light"
	"github.com/tendermint/lightclient/light/provider"
	mockp "github.com/tendermint/lightclient/light/provider/mock"
	"github.com/tendermint/lightclient/light/provider/mocks"
	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/light/store/memory"
	"github.com/tendermint/lightclient/types"
)

// churnedChain returns 16 blocks whose validator sets replace one of four
// validators per height, so a skip of more than three heights cannot be
// trusted.
func churnedChain() *factory.Chain {
	return factory.GenChain(factory.ChainParams{
		ChainID:  chainID,
		Height:   16,
		ValSize:  4,
		Power:    10,
		Churn:    1,
		Start:    bTime,
		Interval: time.Minute,
	})
}

func newClient(t *testing.T, chain *factory.Chain, p provider.Provider, options ...light.Option) *light.Client {
	t.Helper()
	options = append([]light.Option{
		light.WithClock(light.FixedClock(chain.Time(chain.Height).Add(time.Minute))),
		light.Logger(log.TestingLogger()),
	}, options...)
	c, err := light.NewClient(chainID, testOptions(time.Time{}), p, options...)
	require.NoError(t, err)
	return c
}

// trustedState returns a session whose store trusts the given heights.
func trustedState(t *testing.T, chain *factory.Chain, heights ...int64) *light.State {
	t.Helper()
	s := memory.New()
	for _, h := range heights {
		require.NoError(t, s.Insert(chain.Blocks[h], store.StatusTrusted))
	}
	return light.NewState(s)
}

func heightsOf(blocks []*types.LightBlock) []int64 {
	res := make([]int64, len(blocks))
	for i, lb := range blocks {
		res[i] = lb.Height
	}
	return res
}

func TestNewClientValidatesInput(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)

	_, err := light.NewClient("", testOptions(time.Time{}), p)
	assert.Error(t, err)

	_, err = light.NewClient(chainID, testOptions(time.Time{}), nil)
	assert.Error(t, err)

	opts := testOptions(time.Time{})
	opts.TrustLevel = fraction(1, 4)
	_, err = light.NewClient(chainID, opts, p)
	assert.Error(t, err)

	_, err = light.NewClient(chainID, testOptions(time.Time{}), p, light.WithScheduler(nil))
	assert.Error(t, err)

	c, err := light.NewClient(chainID, testOptions(time.Time{}), p)
	require.NoError(t, err)
	assert.Equal(t, chainID, c.ChainID())
	assert.Equal(t, p, c.Primary())
}

func TestClientBisection(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	lb, err := c.VerifyToTarget(context.Background(), 16, state)
	require.NoError(t, err)
	assert.EqualValues(t, 16, lb.Height)
	assert.Equal(t, chain.Blocks[16].Hash(), lb.Hash())
	assert.Equal(t, "primary", lb.Provider)

	assert.Equal(t, []int64{4, 6, 8, 10, 12, 14, 16}, heightsOf(state.Trace(16)))
	assert.True(t, state.Concluded(16))

	for _, h := range []int64{4, 6, 8, 10, 12, 14, 16} {
		e, err := state.Store.Get(h)
		require.NoError(t, err)
		assert.Equal(t, store.StatusTrusted, e.Status, "height %d", h)
		assert.Equal(t, 1, p.Calls(h), "height %d", h)
	}
	for _, h := range []int64{2, 3, 5, 7, 9, 11, 13, 15} {
		_, err := state.Store.Get(h)
		assert.ErrorIs(t, err, store.ErrLightBlockNotFound, "height %d", h)
		assert.Zero(t, p.Calls(h), "height %d", h)
	}
}

func TestClientSequentialOnStaticChain(t *testing.T) {
	chain := factory.GenChain(factory.DefaultChainParams(chainID, 8, bTime))
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 8, state)
	require.NoError(t, err)
	// the whole set signs every block, so the first skip succeeds
	assert.Equal(t, []int64{8}, heightsOf(state.Trace(8)))
	assert.Equal(t, 1, p.TotalCalls())
}

func TestClientAlreadyTrusted(t *testing.T) {
	chain := churnedChain()
	p := mocks.NewProvider(t)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1, 5)

	lb, err := c.VerifyToTarget(context.Background(), 5, state)
	require.NoError(t, err)
	assert.Equal(t, chain.Blocks[5].Hash(), lb.Hash())
	assert.Nil(t, state.Trace(5))
	p.AssertNotCalled(t, "LightBlock", mock.Anything, mock.Anything)
}

func TestClientRerunIsIdempotent(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	first, err := c.VerifyToTarget(context.Background(), 16, state)
	require.NoError(t, err)
	calls := p.TotalCalls()
	trace := state.Trace(16)

	second, err := c.VerifyToTarget(context.Background(), 16, state)
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), second.Hash())
	assert.Equal(t, calls, p.TotalCalls())
	assert.Equal(t, heightsOf(trace), heightsOf(state.Trace(16)))

	// intermediate heights were trusted along the way
	_, err = c.VerifyToTarget(context.Background(), 12, state)
	require.NoError(t, err)
	assert.Equal(t, calls, p.TotalCalls())
}

func TestClientReusesTrustedPivots(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 8, state)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6, 8}, heightsOf(state.Trace(8)))

	_, err = c.VerifyToTarget(context.Background(), 16, state)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12, 14, 16}, heightsOf(state.Trace(16)))
	assert.Equal(t, 1, p.Calls(8))
}

func TestClientNoTrustedAnchor(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)

	_, err := c.VerifyToTarget(context.Background(), 16, light.NewState(memory.New()))
	assert.ErrorIs(t, err, light.ErrNoTrustedAnchor)

	_, err = c.VerifyToTarget(context.Background(), 5, trustedState(t, chain, 10))
	assert.ErrorIs(t, err, light.ErrNoTrustedAnchor)
	assert.Zero(t, p.TotalCalls())
}

func TestClientInvalidTarget(t *testing.T) {
	chain := churnedChain()
	c := newClient(t, chain, mockp.New("primary", chain.Blocks))

	_, err := c.VerifyToTarget(context.Background(), 0, trustedState(t, chain, 1))
	assert.Error(t, err)
	_, err = c.VerifyToTarget(context.Background(), 4, nil)
	assert.Error(t, err)
}

func TestClientFetchError(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	p.FailAt(8, provider.ErrNoResponse)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 16, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNoResponse)

	var vErr light.ErrVerificationFailed
	require.ErrorAs(t, err, &vErr)
	assert.EqualValues(t, 1, vErr.From)
	assert.EqualValues(t, 8, vErr.To)

	// the candidate stays unverified and can be retried
	e, err := state.Store.Get(16)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnverified, e.Status)
}

func TestClientWrongHeightFromProvider(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	p.Set(4, chain.Blocks[5])
	c := newClient(t, chain, p)

	_, err := c.VerifyToTarget(context.Background(), 4, trustedState(t, chain, 1))
	var bad provider.ErrBadLightBlock
	assert.ErrorAs(t, err, &bad)
}

func TestClientInvalidBlockIsMarkedFailed(t *testing.T) {
	chain := churnedChain()
	keys := chain.Keys[2]
	// a single validator out of four signs
	sh := keys.GenSignedHeader(chainID, 2, chain.Time(2),
		keys.ToValidators(10, 0), chain.Keys[3].ToValidators(10, 0),
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, 1)
	bad := &types.LightBlock{
		SignedHeader:     sh,
		ValidatorSet:     keys.ToValidators(10, 0),
		NextValidatorSet: chain.Keys[3].ToValidators(10, 0),
	}

	p := mockp.New("primary", chain.Blocks)
	p.Set(2, bad)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 2, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, light.ErrInsufficientCommitPower)
	assert.True(t, state.Concluded(2))
	assert.Nil(t, state.Trace(2))

	e, err := state.Store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, e.Status)
	assert.NotEmpty(t, e.Reason)

	// a failed block is never retried
	_, err = c.VerifyToTarget(context.Background(), 2, state)
	var vErr light.ErrVerificationFailed
	require.ErrorAs(t, err, &vErr)
	assert.EqualValues(t, 1, vErr.From)
	assert.EqualValues(t, 2, vErr.To)
	assert.Equal(t, 1, p.Calls(2))
}

func TestClientLaggingClock(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	state := trustedState(t, chain, 1)

	// block 2 is a minute after block 1, beyond the allowed drift
	lagging := newClient(t, chain, p,
		light.WithClock(light.FixedClock(chain.Time(1).Add(30*time.Second))))
	_, err := lagging.VerifyToTarget(context.Background(), 2, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, light.ErrHeaderFromFuture)
	assert.True(t, state.Concluded(2))
	assert.Nil(t, state.Trace(2))

	e, err := state.Store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnverified, e.Status)

	lb, err := newClient(t, chain, p).VerifyToTarget(context.Background(), 2, state)
	require.NoError(t, err)
	assert.EqualValues(t, 2, lb.Height)
	assert.Equal(t, []int64{2}, heightsOf(state.Trace(2)))
	assert.Equal(t, 1, p.Calls(2))
}

func TestClientExpiredAnchor(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p,
		light.WithClock(light.FixedClock(chain.Time(1).Add(trustPeriod+time.Hour))))
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 2, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, light.ErrTrustedStateExpired)

	// the candidate itself was never judged
	e, err := state.Store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnverified, e.Status)
}

func TestClientCanceledContext(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.VerifyToTarget(ctx, 16, trustedState(t, chain, 1))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, p.TotalCalls())
}

func TestClientCustomScheduler(t *testing.T) {
	chain := churnedChain()

	t.Run("skewed", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks),
			light.WithScheduler(light.SkewedSchedule(3, 4)))
		state := trustedState(t, chain, 1)

		_, err := c.VerifyToTarget(context.Background(), 16, state)
		require.NoError(t, err)
		trace := heightsOf(state.Trace(16))
		assert.Equal(t, int64(16), trace[len(trace)-1])
		// stepping one height at a time would trust all of 2..16
		assert.Less(t, len(trace), 15)
		for i := 1; i < len(trace); i++ {
			assert.Less(t, trace[i-1], trace[i])
		}
	})

	t.Run("out of range pivot", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks),
			light.WithScheduler(func(trusted, target int64) int64 { return target }))

		_, err := c.VerifyToTarget(context.Background(), 16, trustedState(t, chain, 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside of")
	})
}

func TestClientPrunesStore(t *testing.T) {
	chain := churnedChain()
	c := newClient(t, chain, mockp.New("primary", chain.Blocks), light.PruningSize(3))
	state := trustedState(t, chain, 1)

	_, err := c.VerifyToTarget(context.Background(), 16, state)
	require.NoError(t, err)
	assert.EqualValues(t, 3, state.Store.Size())

	latest, err := state.Store.LatestTrusted()
	require.NoError(t, err)
	assert.EqualValues(t, 16, latest.Height)
}

func TestClientMetrics(t *testing.T) {
	chain := churnedChain()
	var (
		bisections = generic.NewCounter("bisections")
		fetches    = generic.NewCounter("fetches")
		latest     = generic.NewGauge("latest")
	)
	m := &light.Metrics{
		Verifications:       generic.NewCounter("verifications"),
		Bisections:          bisections,
		Fetches:             fetches,
		LatestTrustedHeight: latest,
		StepsPerTarget:      discard.NewHistogram(),
	}
	c := newClient(t, chain, mockp.New("primary", chain.Blocks), light.WithMetrics(m))

	_, err := c.VerifyToTarget(context.Background(), 16, trustedState(t, chain, 1))
	require.NoError(t, err)

	assert.EqualValues(t, 6, bisections.Value())
	assert.EqualValues(t, 7, fetches.Value())
	assert.EqualValues(t, 16, latest.Value())
}

func TestClientVerifyToHighest(t *testing.T) {
	chain := churnedChain()
	p := mockp.New("primary", chain.Blocks)
	c := newClient(t, chain, p)
	state := trustedState(t, chain, 1)

	lb, err := c.VerifyToHighest(context.Background(), state)
	require.NoError(t, err)
	assert.EqualValues(t, 16, lb.Height)
	assert.Equal(t, 1, p.Calls(16))
	assert.True(t, state.Concluded(16))
}

func TestClientBootstrap(t *testing.T) {
	chain := churnedChain()
	trustOpts := light.TrustOptions{
		Period: trustPeriod,
		Height: 1,
		Hash:   chain.Blocks[1].Hash(),
	}

	t.Run("trusted hash", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks))
		s := memory.New()

		lb, err := c.Bootstrap(context.Background(), trustOpts, s)
		require.NoError(t, err)
		assert.EqualValues(t, 1, lb.Height)

		got, err := s.LatestTrusted()
		require.NoError(t, err)
		assert.Equal(t, lb.Hash(), got.Hash())

		_, err = c.VerifyToTarget(context.Background(), 16, light.NewState(s))
		require.NoError(t, err)
	})

	t.Run("hash mismatch", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks))
		opts := trustOpts
		opts.Hash = hash("other")
		s := memory.New()

		_, err := c.Bootstrap(context.Background(), opts, s)
		require.Error(t, err)
		assert.Zero(t, s.Size())
	})

	t.Run("expired", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks),
			light.WithClock(light.FixedClock(chain.Time(1).Add(trustPeriod+time.Minute))))

		_, err := c.Bootstrap(context.Background(), trustOpts, memory.New())
		assert.ErrorIs(t, err, light.ErrTrustedStateExpired)
	})

	t.Run("provider error", func(t *testing.T) {
		p := mocks.NewProvider(t)
		p.On("LightBlock", mock.Anything, int64(1)).Return(nil, provider.ErrLightBlockNotFound)
		p.On("ID").Return("mock")
		c := newClient(t, chain, p)

		_, err := c.Bootstrap(context.Background(), trustOpts, memory.New())
		assert.ErrorIs(t, err, provider.ErrLightBlockNotFound)
	})

	t.Run("invalid trust options", func(t *testing.T) {
		c := newClient(t, chain, mockp.New("primary", chain.Blocks))
		opts := trustOpts
		opts.Hash = []byte("short")

		_, err := c.Bootstrap(context.Background(), opts, memory.New())
		assert.Error(t, err)
	})
}
