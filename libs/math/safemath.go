package math

import (
	"errors"
	"math"
)

var ErrOverflowInt64 = errors.New("int64 overflow")

// SafeAdd adds two int64 integers. The boolean is true on overflow.
func SafeAdd(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return -1, true
	} else if b < 0 && a < math.MinInt64-b {
		return -1, true
	}
	return a + b, false
}

// SafeAddClip adds two int64 integers, clipping to the int64 range.
func SafeAddClip(a, b int64) int64 {
	c, overflow := SafeAdd(a, b)
	if overflow {
		if b < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return c
}

// SafeMul multiplies two int64 integers. The boolean is true on overflow.
func SafeMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}

	absOfB := b
	if b < 0 {
		absOfB = -b
	}

	absOfA := a
	if a < 0 {
		absOfA = -a
	}

	if absOfA > math.MaxInt64/absOfB {
		return 0, true
	}

	return a * b, false
}

// SafeSub subtracts two int64 integers. The boolean is true on overflow.
func SafeSub(a, b int64) (int64, bool) {
	if b > 0 && a < math.MinInt64+b {
		return -1, true
	} else if b < 0 && a > math.MaxInt64+b {
		return -1, true
	}
	return a - b, false
}

// SafeSubClip subtracts two int64 integers, clipping to the int64 range.
func SafeSubClip(a, b int64) int64 {
	c, overflow := SafeSub(a, b)
	if overflow {
		if b > 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return c
}
