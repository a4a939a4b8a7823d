package light

import (
	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

// State is a verification session: a light store plus, for every target
// height, the blocks that were trusted on the way to it.
//
// A State is owned by one session at a time and is not safe for concurrent
// use.
type State struct {
	Store store.Store

	trace  map[int64][]*types.LightBlock
	sealed map[int64]bool
}

// NewState returns a session backed by s. The store must already hold at
// least one trusted light block for verification to start.
func NewState(s store.Store) *State {
	return &State{
		Store:  s,
		trace:  make(map[int64][]*types.LightBlock),
		sealed: make(map[int64]bool),
	}
}

// Trace returns the blocks trusted while verifying targetHeight, in the order
// they were trusted: the lowest pivot first and targetHeight itself last. Only
// the latest run for targetHeight is kept. The returned slice is a copy.
func (s *State) Trace(targetHeight int64) []*types.LightBlock {
	t := s.trace[targetHeight]
	if len(t) == 0 {
		return nil
	}
	return append([]*types.LightBlock(nil), t...)
}

// Concluded reports whether the latest run for targetHeight has finished with
// either success or an invalid block. A run stopped by a fetch error, an
// expired anchor or a canceled context is not concluded.
func (s *State) Concluded(targetHeight int64) bool {
	return s.sealed[targetHeight]
}

// begin starts a new run for targetHeight, dropping the trace of any earlier
// one.
func (s *State) begin(targetHeight int64) {
	delete(s.trace, targetHeight)
	delete(s.sealed, targetHeight)
}

func (s *State) appendTrace(targetHeight int64, lb *types.LightBlock) {
	if s.sealed[targetHeight] {
		return
	}
	s.trace[targetHeight] = append(s.trace[targetHeight], lb)
}

func (s *State) seal(targetHeight int64) {
	s.sealed[targetHeight] = true
}
