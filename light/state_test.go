package light

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/light/store/memory"
)

func TestStateTrace(t *testing.T) {
	chain := factory.GenChain(factory.DefaultChainParams("state", 4, time.Now()))
	s := NewState(memory.New())

	assert.Nil(t, s.Trace(4))
	assert.False(t, s.Concluded(4))

	s.appendTrace(4, chain.Blocks[2])
	s.appendTrace(4, chain.Blocks[4])

	trace := s.Trace(4)
	require.Len(t, trace, 2)
	assert.EqualValues(t, 2, trace[0].Height)
	assert.EqualValues(t, 4, trace[1].Height)

	// callers get a copy
	trace[0] = chain.Blocks[1]
	assert.EqualValues(t, 2, s.Trace(4)[0].Height)

	s.seal(4)
	assert.True(t, s.Concluded(4))
	s.appendTrace(4, chain.Blocks[3])
	assert.Len(t, s.Trace(4), 2, "sealed traces are never edited")

	s.appendTrace(3, chain.Blocks[3])
	assert.Len(t, s.Trace(3), 1)

	s.begin(4)
	assert.False(t, s.Concluded(4))
	assert.Nil(t, s.Trace(4))
	s.appendTrace(4, chain.Blocks[4])
	assert.Len(t, s.Trace(4), 1)
	assert.Len(t, s.Trace(3), 1)
}
