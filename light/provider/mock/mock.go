// Package mock provides a deterministic, map-backed Provider for tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tendermint/lightclient/light/provider"
	"github.com/tendermint/lightclient/types"
)

type Mock struct {
	id string

	mtx    sync.Mutex
	blocks map[int64]*types.LightBlock
	errs   map[int64]error
	calls  map[int64]int
	latest int64
}

var _ provider.Provider = (*Mock)(nil)

// New creates a mock provider serving the given light blocks.
func New(id string, blocks map[int64]*types.LightBlock) *Mock {
	m := &Mock{
		id:     id,
		blocks: make(map[int64]*types.LightBlock, len(blocks)),
		errs:   make(map[int64]error),
		calls:  make(map[int64]int),
	}
	for h, lb := range blocks {
		m.blocks[h] = lb
		if h > m.latest {
			m.latest = h
		}
	}
	return m
}

// ID implements provider.Provider.
func (p *Mock) ID() string {
	return p.id
}

func (p *Mock) String() string {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	heights := make([]int64, 0, len(p.blocks))
	for h := range p.blocks {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	var sb strings.Builder
	for _, h := range heights {
		fmt.Fprintf(&sb, " %d:%X", h, p.blocks[h].Hash())
	}
	return fmt.Sprintf("Mock{%s:%s}", p.id, sb.String())
}

// LightBlock returns a shallow copy of the block at height (0 - the latest),
// or the error set with FailAt.
func (p *Mock) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if height < 0 {
		return nil, fmt.Errorf("expected height >= 0, got height %d", height)
	}
	if height == 0 {
		height = p.latest
	}
	p.calls[height]++

	if err, ok := p.errs[height]; ok {
		return nil, err
	}
	if height > p.latest {
		return nil, provider.ErrHeightTooHigh
	}
	lb, ok := p.blocks[height]
	if !ok {
		return nil, provider.ErrLightBlockNotFound
	}
	cp := *lb
	return &cp, nil
}

// FailAt makes every request for height return err.
func (p *Mock) FailAt(height int64, err error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.errs[height] = err
}

// Set replaces the block served at height.
func (p *Mock) Set(height int64, lb *types.LightBlock) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.blocks[height] = lb
	if height > p.latest {
		p.latest = height
	}
}

// Calls returns how many times height was requested.
func (p *Mock) Calls(height int64) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.calls[height]
}

// TotalCalls returns the number of requests served.
func (p *Mock) TotalCalls() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	var n int
	for _, c := range p.calls {
		n += c
	}
	return n
}
