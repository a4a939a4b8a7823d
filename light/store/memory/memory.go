// Package memory implements an in-memory light store ordered by height.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

const degree = 32

type item struct {
	height int64
	entry  store.Entry
}

var _ btree.Item = item{}

func (i item) Less(than btree.Item) bool {
	return i.height < than.(item).height
}

type mem struct {
	mtx  sync.RWMutex
	tree *btree.BTree
}

var _ store.Store = (*mem)(nil)

// New returns an empty in-memory store.
func New() store.Store {
	return &mem{tree: btree.New(degree)}
}

// Insert stores lb under its height unless the stored status is at least as
// strong as status.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) Insert(lb *types.LightBlock, status store.Status) error {
	if err := store.ValidateInsert(lb, status); err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if old := m.tree.Get(item{height: lb.Height}); old != nil {
		if !status.Upgrades(old.(item).entry.Status) {
			return nil
		}
	}
	m.tree.ReplaceOrInsert(item{height: lb.Height, entry: store.Entry{LightBlock: lb, Status: status}})
	return nil
}

// MarkFailed marks the entry at height as failed.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) MarkFailed(height int64, reason string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	old := m.tree.Get(item{height: height})
	if old == nil {
		return store.ErrLightBlockNotFound
	}
	it := old.(item)
	if !store.StatusFailed.Upgrades(it.entry.Status) {
		return nil
	}
	it.entry.Status = store.StatusFailed
	it.entry.Reason = reason
	m.tree.ReplaceOrInsert(it)
	return nil
}

// Get returns the entry at height.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) Get(height int64) (store.Entry, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	it := m.tree.Get(item{height: height})
	if it == nil {
		return store.Entry{}, store.ErrLightBlockNotFound
	}
	return it.(item).entry, nil
}

// HighestTrustedBelowOrAt returns the highest trusted block at or below
// height.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) HighestTrustedBelowOrAt(height int64) (*types.LightBlock, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var found *types.LightBlock
	m.tree.DescendLessOrEqual(item{height: height}, func(i btree.Item) bool {
		if e := i.(item).entry; e.Status == store.StatusTrusted {
			found = e.LightBlock
			return false
		}
		return true
	})
	if found == nil {
		return nil, store.ErrLightBlockNotFound
	}
	return found, nil
}

// LatestTrusted returns the highest trusted block.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) LatestTrusted() (*types.LightBlock, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.latestTrusted()
}

func (m *mem) latestTrusted() (*types.LightBlock, error) {
	var found *types.LightBlock
	m.tree.Descend(func(i btree.Item) bool {
		if e := i.(item).entry; e.Status == store.StatusTrusted {
			found = e.LightBlock
			return false
		}
		return true
	})
	if found == nil {
		return nil, store.ErrLightBlockNotFound
	}
	return found, nil
}

// LowestTrusted returns the lowest trusted block.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) LowestTrusted() (*types.LightBlock, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var found *types.LightBlock
	m.tree.Ascend(func(i btree.Item) bool {
		if e := i.(item).entry; e.Status == store.StatusTrusted {
			found = e.LightBlock
			return false
		}
		return true
	})
	if found == nil {
		return nil, store.ErrLightBlockNotFound
	}
	return found, nil
}

// Prune removes the lowest entries until size entries remain. The latest
// trusted block is kept.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) Prune(size uint16) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	excess := m.tree.Len() - int(size)
	if excess <= 0 {
		return nil
	}

	var keep int64 = -1
	if latest, err := m.latestTrusted(); err == nil {
		keep = latest.Height
	}

	doomed := make([]btree.Item, 0, excess)
	m.tree.Ascend(func(i btree.Item) bool {
		if len(doomed) == excess {
			return false
		}
		if i.(item).height != keep {
			doomed = append(doomed, i)
		}
		return true
	})
	for _, i := range doomed {
		m.tree.Delete(i)
	}
	return nil
}

// Size returns the number of stored entries.
//
// Safe for concurrent use by multiple goroutines.
func (m *mem) Size() uint64 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return uint64(m.tree.Len())
}

func (m *mem) String() string {
	return fmt.Sprintf("memory.Store{size: %d}", m.Size())
}
