// Package db implements a light store on top of a tm-db database.
package db

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/lightclient/light/store"
	"github.com/tendermint/lightclient/types"
)

const (
	prefixLightBlock = int64(11)
	prefixSize       = int64(12)
)

type dbs struct {
	db dbm.DB

	mtx  sync.RWMutex
	size uint64
}

var _ store.Store = (*dbs)(nil)

// New returns a Store that wraps any DB
// If you want to share one DB across many light clients consider using PrefixDB
func New(db dbm.DB) store.Store {
	lightStore := &dbs{db: db}

	// retrieve the size of the db
	size := uint64(0)
	bz, err := lightStore.db.Get(sizeKey)
	if err == nil && len(bz) > 0 {
		size = unmarshalSize(bz)
	}
	lightStore.size = size

	return lightStore
}

// Insert persists lb with the given status, unless the stored status at the
// same height is at least as strong.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Insert(lb *types.LightBlock, status store.Status) error {
	if err := store.ValidateInsert(lb, status); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	old, err := s.get(lb.Height)
	switch {
	case err == nil:
		if !status.Upgrades(old.Status) {
			return nil
		}
		return s.put(store.Entry{LightBlock: lb, Status: status}, false)
	case errors.Is(err, store.ErrLightBlockNotFound):
		return s.put(store.Entry{LightBlock: lb, Status: status}, true)
	default:
		return err
	}
}

// MarkFailed marks the entry at height as failed.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) MarkFailed(height int64, reason string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, err := s.get(height)
	if err != nil {
		return err
	}
	if !store.StatusFailed.Upgrades(e.Status) {
		return nil
	}
	e.Status = store.StatusFailed
	e.Reason = reason
	return s.put(e, false)
}

// Get returns the entry stored at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Get(height int64) (store.Entry, error) {
	if height <= 0 {
		return store.Entry{}, store.ErrLightBlockNotFound
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.get(height)
}

// HighestTrustedBelowOrAt iterates downwards from height and returns the
// first trusted block.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) HighestTrustedBelowOrAt(height int64) (*types.LightBlock, error) {
	if height <= 0 {
		return nil, store.ErrLightBlockNotFound
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	end := lbKeyEnd
	if height < maxHeight {
		end = lbKey(height + 1)
	}
	itr, err := s.db.ReverseIterator(lbKey(1), end)
	if err != nil {
		panic(err)
	}
	return firstTrusted(itr)
}

// LatestTrusted returns the highest trusted block.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LatestTrusted() (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	itr, err := s.db.ReverseIterator(lbKey(1), lbKeyEnd)
	if err != nil {
		panic(err)
	}
	return firstTrusted(itr)
}

// LowestTrusted returns the lowest trusted block.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LowestTrusted() (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	itr, err := s.db.Iterator(lbKey(1), lbKeyEnd)
	if err != nil {
		panic(err)
	}
	return firstTrusted(itr)
}

// Prune prunes the lowest entries until size entries remain. The latest
// trusted block is never pruned.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Prune(size uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// 1) Check how many we need to prune.
	sSize := s.size
	if sSize <= uint64(size) { // nothing to prune
		return nil
	}
	numToPrune := sSize - uint64(size)

	keep := int64(-1)
	if itr, err := s.db.ReverseIterator(lbKey(1), lbKeyEnd); err == nil {
		if lb, err := firstTrusted(itr); err == nil {
			keep = lb.Height
		}
	}

	b := s.db.NewBatch()
	defer b.Close()

	// 2) Iterate over entries from the lowest height.
	itr, err := s.db.Iterator(lbKey(1), lbKeyEnd)
	if err != nil {
		panic(err)
	}
	defer itr.Close()

	pruned := uint64(0)
	for ; itr.Valid() && numToPrune > 0; itr.Next() {
		height, err := parseLbKey(itr.Key())
		if err != nil {
			return err
		}
		if height == keep {
			continue
		}
		if err = b.Delete(itr.Key()); err != nil {
			return err
		}
		numToPrune--
		pruned++
	}
	if err = itr.Error(); err != nil {
		return err
	}

	// 3) Update size.
	s.size = sSize - pruned

	if err := b.Set(sizeKey, marshalSize(s.size)); err != nil {
		return fmt.Errorf("failed to persist size: %w", err)
	}

	// 4) write batch deletion to disk
	return b.WriteSync()
}

// Size returns the number of stored entries.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Size() uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.size
}

func (s *dbs) get(height int64) (store.Entry, error) {
	bz, err := s.db.Get(lbKey(height))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return store.Entry{}, store.ErrLightBlockNotFound
	}

	var e store.Entry
	if err := json.Unmarshal(bz, &e); err != nil {
		return store.Entry{}, fmt.Errorf("unmarshal entry at height %d: %w", height, err)
	}
	return e, nil
}

func (s *dbs) put(e store.Entry, isNew bool) error {
	bz, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry at height %d: %w", e.LightBlock.Height, err)
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err = b.Set(lbKey(e.LightBlock.Height), bz); err != nil {
		return err
	}
	if isNew {
		if err = b.Set(sizeKey, marshalSize(s.size+1)); err != nil {
			return err
		}
	}
	if err = b.WriteSync(); err != nil {
		return fmt.Errorf("failed to write entry at height %d: %w", e.LightBlock.Height, err)
	}
	if isNew {
		s.size++
	}
	return nil
}

func firstTrusted(itr dbm.Iterator) (*types.LightBlock, error) {
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		var e store.Entry
		if err := json.Unmarshal(itr.Value(), &e); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		if e.Status == store.StatusTrusted {
			return e.LightBlock, nil
		}
	}
	if err := itr.Error(); err != nil {
		return nil, err
	}
	return nil, store.ErrLightBlockNotFound
}

const maxHeight = int64(^uint64(0) >> 1)

var (
	sizeKey  = mustAppend(prefixSize)
	lbKeyEnd = mustAppend(prefixLightBlock, maxHeight)
)

func lbKey(height int64) []byte {
	return mustAppend(prefixLightBlock, height)
}

func parseLbKey(key []byte) (int64, error) {
	var (
		prefix int64
		height int64
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &height)
	if err != nil {
		return 0, fmt.Errorf("failed to parse light block key: %w", err)
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected no remainder when parsing light block key but got: %s", remaining)
	}
	if prefix != prefixLightBlock {
		return 0, fmt.Errorf("expected light block prefix but got: %d", prefix)
	}
	return height, nil
}

func mustAppend(items ...interface{}) []byte {
	key, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(err)
	}
	return key
}

func marshalSize(size uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, size)
	return bz
}

func unmarshalSize(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}
