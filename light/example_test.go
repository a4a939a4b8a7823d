package light_test

import (
	"context"
	"fmt"
	"time"

	"github.com/tendermint/lightclient/internal/test/factory"
	"github.com/tendermint/lightclient/light"
	"github.com/tendermint/lightclient/light/provider/mock"
	"github.com/tendermint/lightclient/light/store/memory"
)

// Verify a light block 15 heights above a trusted checkpoint on a chain whose
// validator set changes at every height.
func ExampleClient() {
	chain := factory.GenChain(factory.ChainParams{
		ChainID:  "example",
		Height:   16,
		ValSize:  4,
		Power:    10,
		Churn:    1,
		Start:    time.Now().Add(-time.Hour),
		Interval: time.Minute,
	})

	c, err := light.NewClient("example", light.DefaultOptions(), mock.New("primary", chain.Blocks))
	if err != nil {
		panic(err)
	}

	s := memory.New()
	_, err = c.Bootstrap(context.Background(), light.TrustOptions{
		Period: 504 * time.Hour,
		Height: 1,
		Hash:   chain.Blocks[1].Hash(),
	}, s)
	if err != nil {
		panic(err)
	}

	state := light.NewState(s)
	lb, err := c.VerifyToTarget(context.Background(), 16, state)
	if err != nil {
		panic(err)
	}

	fmt.Println("verified", lb.Height)
	for _, step := range state.Trace(16) {
		fmt.Println("trusted", step.Height)
	}
	// Output:
	// verified 16
	// trusted 4
	// trusted 6
	// trusted 8
	// trusted 10
	// trusted 12
	// trusted 14
	// trusted 16
}
