package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tendermint/lightclient/light/provider"
	"github.com/tendermint/lightclient/types"
)

// This is very brittle, see: https://github.com/tendermint/tendermint/issues/4740
var (
	regexpTooHigh       = regexp.MustCompile(`height \d+ must be less than or equal to`)
	regexpMissingHeight = regexp.MustCompile(`height \d+ is not available`)
)

const (
	maxPerPage     = 100
	defaultTimeout = 5 * time.Second
)

// http provider fetches light blocks from the JSON-RPC endpoints of a
// Tendermint node.
type http struct {
	chainID string
	remote  string
	client  *nethttp.Client
}

// New creates a HTTP provider with a default client. If no scheme is provided
// in the remote URL, http will be used by default.
func New(chainID, remote string) (provider.Provider, error) {
	return NewWithClient(chainID, remote, &nethttp.Client{Timeout: defaultTimeout})
}

// NewWithClient allows you to provide a custom client.
func NewWithClient(chainID, remote string, client *nethttp.Client) (provider.Provider, error) {
	// Ensure URL scheme is set (default HTTP) when not provided.
	if !strings.Contains(remote, "://") {
		remote = "http://" + remote
	}
	if _, err := url.Parse(remote); err != nil {
		return nil, fmt.Errorf("invalid remote %q: %w", remote, err)
	}

	return &http{
		chainID: chainID,
		remote:  strings.TrimSuffix(remote, "/"),
		client:  client,
	}, nil
}

// ID implements provider.Provider.
func (p *http) ID() string {
	return fmt.Sprintf("http{%s}", p.remote)
}

func (p *http) String() string {
	return p.ID()
}

// LightBlock fetches the signed header at height together with the validator
// sets at height and height+1 and checks the result against the chain ID.
func (p *http) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if height < 0 {
		return nil, fmt.Errorf("expected height >= 0, got height %d", height)
	}

	sh, err := p.signedHeader(ctx, height)
	if err != nil {
		return nil, err
	}
	if sh.Header == nil || sh.Commit == nil {
		return nil, provider.ErrBadLightBlock{Reason: errors.New("signed header is nil")}
	}
	if height != 0 && sh.Height != height {
		return nil, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("height %d responded doesn't match height %d requested", sh.Height, height),
		}
	}

	vals, err := p.validatorSet(ctx, sh.Height)
	if err != nil {
		return nil, err
	}
	nextVals, err := p.validatorSet(ctx, sh.Height+1)
	if err != nil {
		return nil, err
	}

	lb := &types.LightBlock{
		SignedHeader:     sh,
		ValidatorSet:     vals,
		NextValidatorSet: nextVals,
		Provider:         p.ID(),
	}
	if err := lb.ValidateBasic(p.chainID); err != nil {
		return nil, provider.ErrBadLightBlock{Reason: err}
	}
	return lb, nil
}

type commitResult struct {
	SignedHeader types.SignedHeader `json:"signed_header"`
	Canonical    bool               `json:"canonical"`
}

type validatorsResult struct {
	BlockHeight int64              `json:"block_height,string"`
	Validators  []*types.Validator `json:"validators"`
	Count       int                `json:"count,string"`
	Total       int                `json:"total,string"`
}

func (p *http) signedHeader(ctx context.Context, height int64) (*types.SignedHeader, error) {
	params := url.Values{}
	if height > 0 {
		params.Set("height", strconv.FormatInt(height, 10))
	}

	var res commitResult
	if err := p.call(ctx, "commit", params, &res); err != nil {
		return nil, err
	}
	return &res.SignedHeader, nil
}

func (p *http) validatorSet(ctx context.Context, height int64) (*types.ValidatorSet, error) {
	var (
		vals []*types.Validator
		page = 1
	)
	for {
		params := url.Values{}
		params.Set("height", strconv.FormatInt(height, 10))
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(maxPerPage))

		var res validatorsResult
		if err := p.call(ctx, "validators", params, &res); err != nil {
			return nil, err
		}
		vals = append(vals, res.Validators...)

		// Check if there are more validators.
		if len(res.Validators) < maxPerPage || len(vals) >= res.Total {
			break
		}
		page++
	}

	valSet, err := types.ValidatorSetFromExistingValidators(vals)
	if err != nil {
		return nil, provider.ErrBadLightBlock{Reason: fmt.Errorf("validator set at height %d: %w", height, err)}
	}
	return valSet, nil
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("RPC error %d - %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("RPC error %d - %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// call performs a URI-style JSON-RPC request and decodes the result into out.
func (p *http) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	u := p.remote + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return provider.ErrNoResponse
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("%s: unexpected response (status %d): %w", method, resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return classifyRPCError(rpcResp.Error)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return provider.ErrBadLightBlock{Reason: fmt.Errorf("%s: %w", method, err)}
	}
	return nil
}

func classifyRPCError(e *rpcError) error {
	msg := e.Data + " " + e.Message
	switch {
	case regexpTooHigh.MatchString(msg):
		return fmt.Errorf("%w: %v", provider.ErrHeightTooHigh, e)
	case regexpMissingHeight.MatchString(msg):
		return fmt.Errorf("%w: %v", provider.ErrLightBlockNotFound, e)
	default:
		return e
	}
}
