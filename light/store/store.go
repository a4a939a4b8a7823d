package store

import (
	"errors"
	"fmt"

	"github.com/tendermint/lightclient/types"
)

// ErrLightBlockNotFound is returned when no light block is stored at the
// requested height, or no block with the requested status exists.
var ErrLightBlockNotFound = errors.New("light block not found")

// Status is the verification status a light block is stored with.
//
// Statuses form an upgrade chain Unverified < Verified < Trusted. Failed is
// terminal: once a height has failed it is never upgraded again.
type Status uint8

const (
	StatusUnknown Status = iota
	// StatusUnverified - fetched but not checked yet.
	StatusUnverified
	// StatusVerified - passed verification but not committed as an anchor.
	StatusVerified
	// StatusTrusted - verified and usable as an anchor.
	StatusTrusted
	// StatusFailed - verification failed; see Entry.Reason.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	case StatusTrusted:
		return "trusted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the statuses a block can be stored with.
func (s Status) Valid() bool {
	return s >= StatusUnverified && s <= StatusFailed
}

// Upgrades reports whether replacing a stored status old with s is allowed.
// Failed can replace any non-failed status.
func (s Status) Upgrades(old Status) bool {
	switch {
	case old == StatusUnknown:
		return s.Valid()
	case old == StatusFailed:
		return false
	case s == StatusFailed:
		return true
	default:
		return s > old
	}
}

// Entry is a stored light block together with its status.
type Entry struct {
	LightBlock *types.LightBlock `json:"light_block"`
	Status     Status            `json:"status"`
	// Reason is set for StatusFailed only.
	Reason string `json:"reason,omitempty"`
}

// Store holds light blocks indexed by height, each tagged with a
// verification status. There is exactly one entry per height.
//
// Implementations must be safe for concurrent use, although a single
// verification session is expected to own its store.
type Store interface {
	// Insert stores lb with the given status. If an entry already exists at
	// lb's height, it is replaced only when status upgrades the stored one;
	// otherwise Insert is a no-op and returns nil.
	//
	// lb.Height must be > 0.
	Insert(lb *types.LightBlock, status Status) error

	// MarkFailed sets the entry at height to StatusFailed, recording reason.
	//
	// If no entry exists, ErrLightBlockNotFound is returned.
	MarkFailed(height int64, reason string) error

	// Get returns the entry stored at height.
	//
	// If none exists, ErrLightBlockNotFound is returned.
	Get(height int64) (Entry, error)

	// HighestTrustedBelowOrAt returns the highest Trusted light block with
	// height <= the given height. Non-trusted entries are ignored.
	//
	// If none exists, ErrLightBlockNotFound is returned.
	HighestTrustedBelowOrAt(height int64) (*types.LightBlock, error)

	// LatestTrusted returns the highest Trusted light block.
	//
	// If none exists, ErrLightBlockNotFound is returned.
	LatestTrusted() (*types.LightBlock, error)

	// LowestTrusted returns the lowest Trusted light block.
	//
	// If none exists, ErrLightBlockNotFound is returned.
	LowestTrusted() (*types.LightBlock, error)

	// Prune removes the lowest entries until at most size entries remain.
	// The latest trusted block is never removed.
	Prune(size uint16) error

	// Size returns the number of stored entries.
	Size() uint64
}

// ValidateInsert checks the arguments of Store.Insert.
func ValidateInsert(lb *types.LightBlock, status Status) error {
	if lb == nil || lb.SignedHeader == nil || lb.Header == nil {
		return errors.New("nil light block")
	}
	if lb.Height <= 0 {
		return fmt.Errorf("non-positive height %d", lb.Height)
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %v", status)
	}
	return nil
}
