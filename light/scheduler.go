package light

import (
	tmmath "github.com/tendermint/lightclient/libs/math"
)

// Scheduler picks the next height to verify when the block at targetHeight
// cannot be trusted directly from the block at trustedHeight.
//
// For targetHeight > trustedHeight+1 the result must lie strictly between the
// two heights. The client rejects any other result.
type Scheduler func(trustedHeight, targetHeight int64) int64

// BasicBisectingSchedule returns the midpoint between trustedHeight and
// targetHeight, rounded down.
func BasicBisectingSchedule(trustedHeight, targetHeight int64) int64 {
	return trustedHeight + (targetHeight-trustedHeight)/2
}

// SkewedSchedule returns a scheduler placing the pivot at num/den of the way
// from trustedHeight to targetHeight. The result is clamped into the open
// interval between the two heights.
//
// SkewedSchedule(9, 16) finds a pivot above the previous midpoint, so blocks
// fetched during an earlier bisection are likely to be reused.
//
// A fraction outside of (0, 1) falls back to BasicBisectingSchedule.
func SkewedSchedule(num, den int64) Scheduler {
	if num <= 0 || den <= 0 || num >= den {
		return BasicBisectingSchedule
	}

	return func(trustedHeight, targetHeight int64) int64 {
		gap := targetHeight - trustedHeight
		if gap < 2 {
			return BasicBisectingSchedule(trustedHeight, targetHeight)
		}

		offset, overflow := tmmath.SafeMul(gap, num)
		if !overflow {
			offset /= den
		} else {
			offset = gap / den * num
		}

		pivot := trustedHeight + offset
		switch {
		case pivot <= trustedHeight:
			return trustedHeight + 1
		case pivot >= targetHeight:
			return targetHeight - 1
		}
		return pivot
	}
}

func validPivot(pivot, trustedHeight, targetHeight int64) bool {
	return pivot > trustedHeight && pivot < targetHeight
}
