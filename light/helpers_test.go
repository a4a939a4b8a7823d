package light_test

import (
	"time"

	"github.com/tendermint/lightclient/internal/test/factory"
	tmmath "github.com/tendermint/lightclient/libs/math"
	"github.com/tendermint/lightclient/light"
	"github.com/tendermint/lightclient/types"
)

const chainID = "test"

var (
	bTime       = time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	trustPeriod = 4 * time.Hour
	maxDrift    = 10 * time.Second
)

func hash(s string) []byte {
	return factory.Hash(s)
}

// genLightBlock returns a light block at height signed by keys[first:last],
// with every key in keys (resp. nextKeys) holding 10 units of power in the
// validator set (resp. next validator set).
func genLightBlock(keys, nextKeys factory.PrivKeys, height int64, t time.Time, first, last int) *types.LightBlock {
	vals := keys.ToValidators(10, 0)
	nextVals := nextKeys.ToValidators(10, 0)
	sh := keys.GenSignedHeader(chainID, height, t, vals, nextVals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), first, last)
	return &types.LightBlock{
		SignedHeader:     sh,
		ValidatorSet:     vals,
		NextValidatorSet: nextVals,
	}
}

// testOptions returns verification options with the given reference time.
func testOptions(now time.Time) light.Options {
	return light.Options{
		TrustLevel:     light.DefaultTrustLevel,
		TrustingPeriod: trustPeriod,
		MaxClockDrift:  maxDrift,
		Now:            now,
	}
}

func fraction(num, den uint64) tmmath.Fraction {
	return tmmath.Fraction{Numerator: num, Denominator: den}
}

// keysOf picks the given indexes of keys into a new slice.
func keysOf(keys factory.PrivKeys, idx ...int) factory.PrivKeys {
	res := make(factory.PrivKeys, len(idx))
	for i, j := range idx {
		res[i] = keys[j]
	}
	return res
}
