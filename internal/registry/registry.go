// Package registry maps pool-asset addresses to pool instances and creates
// new pools against the protocol's single quote asset.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/brenda87/tswap/pkg/cpmm"
)

var (
	// ErrPoolExists is returned when a pool for the asset already exists.
	ErrPoolExists = errors.New("pool already exists")
	// ErrPoolNotFound is returned when no pool exists for the asset.
	ErrPoolNotFound = errors.New("pool not found")
)

// Registry is the factory collaborator: one pool per pool asset, all pools
// paired with the same quote asset.
type Registry struct {
	mu         sync.RWMutex
	quoteAsset common.Address
	pools      map[common.Address]*cpmm.Pool
	clock      func() time.Time
}

type Option func(*Registry)

// WithClock makes pools created by the registry use the given clock. Used for
// deterministic deadline tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

func New(quoteAsset common.Address, opts ...Option) *Registry {
	r := &Registry{
		quoteAsset: quoteAsset,
		pools:      make(map[common.Address]*cpmm.Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QuoteAsset returns the quote asset all pools trade against.
func (r *Registry) QuoteAsset() common.Address { return r.quoteAsset }

// CreatePool registers an empty pool for poolAsset.
func (r *Registry) CreatePool(poolAsset common.Address) (*cpmm.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[poolAsset]; ok {
		return nil, ErrPoolExists
	}
	pool, err := cpmm.NewPool(poolAsset, r.quoteAsset)
	if err != nil {
		return nil, err
	}
	if r.clock != nil {
		pool.WithClock(r.clock)
	}
	r.pools[poolAsset] = pool
	return pool, nil
}

// GetPool looks up the pool for poolAsset.
func (r *Registry) GetPool(poolAsset common.Address) (*cpmm.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[poolAsset]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// Pools returns a snapshot of all registered pools.
func (r *Registry) Pools() []*cpmm.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*cpmm.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out
}
