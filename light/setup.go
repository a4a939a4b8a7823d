package light

import (
	"github.com/tendermint/lightclient/light/provider/http"
)

// NewHTTPClient initiates an instance of a light client fetching light blocks
// from the RPC endpoint at primaryAddress.
//
// See all Option(s) for the additional configuration.
// See NewClient.
func NewHTTPClient(chainID string, opts Options, primaryAddress string, options ...Option) (*Client, error) {
	p, err := http.New(chainID, primaryAddress)
	if err != nil {
		return nil, err
	}

	return NewClient(chainID, opts, p, options...)
}
