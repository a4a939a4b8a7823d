// Package storetest holds behavioural tests shared by every store.Store
// implementation.
package storetest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

const chainID = "store-test"

var genesisTime = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	chain := factory.GenChain(factory.DefaultChainParams(chainID, 10, genesisTime))

	tests := map[string]func(*testing.T, store.Store, *factory.Chain){
		"Empty":                   testEmpty,
		"InsertAndGet":            testInsertAndGet,
		"StatusIsMonotonic":       testStatusIsMonotonic,
		"FailedIsTerminal":        testFailedIsTerminal,
		"TrustedQueries":          testTrustedQueries,
		"Prune":                   testPrune,
		"InvalidInsert":           testInvalidInsert,
		"ConcurrentInsertAndRead": testConcurrent,
	}
	for name, fn := range tests {
		fn := fn
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t), chain)
		})
	}
}

func testEmpty(t *testing.T, s store.Store, _ *factory.Chain) {
	assert.EqualValues(t, 0, s.Size())

	_, err := s.Get(1)
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
	_, err = s.LatestTrusted()
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
	_, err = s.LowestTrusted()
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
	_, err = s.HighestTrustedBelowOrAt(100)
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
	assert.ErrorIs(t, s.MarkFailed(1, "boom"), store.ErrLightBlockNotFound)
	assert.NoError(t, s.Prune(0))
}

func testInsertAndGet(t *testing.T, s store.Store, c *factory.Chain) {
	require.NoError(t, s.Insert(c.Blocks[3], store.StatusUnverified))
	require.NoError(t, s.Insert(c.Blocks[5], store.StatusTrusted))
	assert.EqualValues(t, 2, s.Size())

	e, err := s.Get(3)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnverified, e.Status)
	assert.Equal(t, c.Blocks[3].Hash(), e.LightBlock.Hash())

	e, err = s.Get(5)
	require.NoError(t, err)
	assert.Equal(t, store.StatusTrusted, e.Status)
	assert.Equal(t, c.Blocks[5].ValidatorSet.Hash(), e.LightBlock.ValidatorSet.Hash())
	assert.Equal(t, c.Blocks[5].NextValidatorSet.Hash(), e.LightBlock.NextValidatorSet.Hash())
	assert.NoError(t, e.LightBlock.ValidateBasic(chainID))

	_, err = s.Get(4)
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
}

func testStatusIsMonotonic(t *testing.T, s store.Store, c *factory.Chain) {
	lb := c.Blocks[2]

	require.NoError(t, s.Insert(lb, store.StatusVerified))
	// weaker status is a no-op
	require.NoError(t, s.Insert(lb, store.StatusUnverified))
	e, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusVerified, e.Status)

	require.NoError(t, s.Insert(lb, store.StatusTrusted))
	e, err = s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusTrusted, e.Status)
	assert.EqualValues(t, 1, s.Size())
}

func testFailedIsTerminal(t *testing.T, s store.Store, c *factory.Chain) {
	require.NoError(t, s.Insert(c.Blocks[4], store.StatusUnverified))
	require.NoError(t, s.MarkFailed(4, "invalid commit"))

	require.NoError(t, s.Insert(c.Blocks[4], store.StatusTrusted))
	e, err := s.Get(4)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, e.Status)
	assert.Equal(t, "invalid commit", e.Reason)

	_, err = s.LatestTrusted()
	assert.ErrorIs(t, err, store.ErrLightBlockNotFound)
}

func testTrustedQueries(t *testing.T, s store.Store, c *factory.Chain) {
	require.NoError(t, s.Insert(c.Blocks[2], store.StatusTrusted))
	require.NoError(t, s.Insert(c.Blocks[4], store.StatusVerified))
	require.NoError(t, s.Insert(c.Blocks[6], store.StatusTrusted))
	require.NoError(t, s.Insert(c.Blocks[8], store.StatusUnverified))
	require.NoError(t, s.Insert(c.Blocks[9], store.StatusUnverified))
	require.NoError(t, s.MarkFailed(9, "bad"))

	testCases := []struct {
		height int64
		want   int64 // 0 means none
	}{
		{1, 0},
		{2, 2},
		{3, 2},
		{5, 2},
		{6, 6},
		{10, 6},
		{1 << 62, 6},
	}
	for _, tc := range testCases {
		lb, err := s.HighestTrustedBelowOrAt(tc.height)
		if tc.want == 0 {
			assert.ErrorIs(t, err, store.ErrLightBlockNotFound, "height %d", tc.height)
			continue
		}
		require.NoError(t, err, "height %d", tc.height)
		assert.Equal(t, tc.want, lb.Height, "height %d", tc.height)
	}

	latest, err := s.LatestTrusted()
	require.NoError(t, err)
	assert.EqualValues(t, 6, latest.Height)

	lowest, err := s.LowestTrusted()
	require.NoError(t, err)
	assert.EqualValues(t, 2, lowest.Height)
}

func testPrune(t *testing.T, s store.Store, c *factory.Chain) {
	for h := int64(1); h <= 6; h++ {
		status := store.StatusUnverified
		if h == 2 {
			status = store.StatusTrusted
		}
		require.NoError(t, s.Insert(c.Blocks[h], status))
	}
	require.EqualValues(t, 6, s.Size())

	require.NoError(t, s.Prune(10))
	assert.EqualValues(t, 6, s.Size())

	// heights 1, 3 and 4 go; 2 is the latest trusted block.
	require.NoError(t, s.Prune(3))
	assert.EqualValues(t, 3, s.Size())
	for _, h := range []int64{1, 3, 4} {
		_, err := s.Get(h)
		assert.ErrorIs(t, err, store.ErrLightBlockNotFound, "height %d", h)
	}
	for _, h := range []int64{2, 5, 6} {
		_, err := s.Get(h)
		assert.NoError(t, err, "height %d", h)
	}

	require.NoError(t, s.Prune(0))
	assert.EqualValues(t, 1, s.Size())
	latest, err := s.LatestTrusted()
	require.NoError(t, err)
	assert.EqualValues(t, 2, latest.Height)
}

func testInvalidInsert(t *testing.T, s store.Store, c *factory.Chain) {
	assert.Error(t, s.Insert(nil, store.StatusTrusted))
	assert.Error(t, s.Insert(&types.LightBlock{}, store.StatusTrusted))
	assert.Error(t, s.Insert(c.Blocks[1], store.StatusUnknown))
	assert.EqualValues(t, 0, s.Size())
}

func testConcurrent(t *testing.T, s store.Store, c *factory.Chain) {
	var wg sync.WaitGroup
	for h := int64(1); h <= c.Height; h++ {
		wg.Add(1)
		go func(h int64) {
			defer wg.Done()
			assert.NoError(t, s.Insert(c.Blocks[h], store.StatusTrusted))
			_, _ = s.LatestTrusted()
			_, _ = s.HighestTrustedBelowOrAt(h)
		}(h)
	}
	wg.Wait()

	assert.EqualValues(t, c.Height, s.Size())
	latest, err := s.LatestTrusted()
	require.NoError(t, err)
	assert.Equal(t, c.Height, latest.Height)
}
