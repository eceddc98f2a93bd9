package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/brenda87/tswap/internal/custody"
	"github.com/brenda87/tswap/internal/events"
	"github.com/brenda87/tswap/internal/metrics"
	"github.com/brenda87/tswap/internal/registry"
	"github.com/brenda87/tswap/pkg/cpmm"
)

// PoolService orchestrates pool operations: guard-checked engine calls first,
// then custody instructions, then event emission. Engine bookkeeping always
// commits before the custody collaborator is invoked, so no external call can
// observe stale reserves.
type PoolService struct {
	BaseService
	registry  *registry.Registry
	ledger    custody.Ledger
	emitter   events.Emitter
	metrics   *metrics.Metrics
	snapshots SnapshotStore
}

// SnapshotStore persists the latest reserves and liquidity supply of a pool
// after each state-changing operation.
type SnapshotStore interface {
	UpsertPoolSnapshot(ctx context.Context, pool, quoteAsset, reserveQuote, reserveToken, liquiditySupply string) error
}

// Option configures optional PoolService collaborators.
type Option func(*PoolService)

func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *PoolService) { s.snapshots = store }
}

// DepositResult reports what a settled deposit moved and minted.
type DepositResult struct {
	LiquidityMinted *big.Int
	QuoteIn         *big.Int
	TokenIn         *big.Int
}

// WithdrawResult reports what a settled withdrawal burned and paid out.
type WithdrawResult struct {
	LiquidityBurned *big.Int
	QuoteOut        *big.Int
	TokenOut        *big.Int
}

// SwapResult reports a settled swap and the pool's final reserves.
type SwapResult struct {
	AssetIn      common.Address
	AmountIn     *big.Int
	AssetOut     common.Address
	AmountOut    *big.Int
	ReserveQuote *big.Int
	ReserveToken *big.Int
}

func NewPoolService(logger *slog.Logger, reg *registry.Registry, ledger custody.Ledger, emitter events.Emitter, m *metrics.Metrics, opts ...Option) (*PoolService, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if emitter == nil {
		return nil, ErrEmitterRequired
	}
	if m == nil {
		return nil, ErrMetricsRequired
	}
	s := &PoolService{
		BaseService: BaseService{logger: logger},
		registry:    reg,
		ledger:      ledger,
		emitter:     emitter,
		metrics:     m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// QuoteAsset returns the quote asset all pools trade against.
func (s *PoolService) QuoteAsset() common.Address { return s.registry.QuoteAsset() }

// CreatePool registers an empty pool for poolAsset.
func (s *PoolService) CreatePool(ctx context.Context, poolAsset common.Address) (*cpmm.Pool, error) {
	pool, err := s.registry.CreatePool(poolAsset)
	if err != nil {
		return nil, err
	}
	s.logger.Info("pool created", "pool", poolAsset.Hex(), "quote", s.registry.QuoteAsset().Hex())
	return pool, nil
}

// PoolSummary describes one pool's current state.
type PoolSummary struct {
	PoolAsset       common.Address
	ReserveQuote    *big.Int
	ReserveToken    *big.Int
	LiquiditySupply *big.Int
}

// ListPools returns the current state of every registered pool.
func (s *PoolService) ListPools(ctx context.Context) []PoolSummary {
	pools := s.registry.Pools()
	out := make([]PoolSummary, 0, len(pools))
	for _, p := range pools {
		reserveQuote, reserveToken := p.Reserves()
		out = append(out, PoolSummary{
			PoolAsset:       p.PoolAsset(),
			ReserveQuote:    reserveQuote,
			ReserveToken:    reserveToken,
			LiquiditySupply: p.LiquiditySupply(),
		})
	}
	return out
}

// Quote prices a prospective swap against the pool's current reserves without
// committing anything. With exactOutput set, amount is the desired output and
// the returned value is the required input; otherwise amount is the input and
// the returned value is the payout.
func (s *PoolService) Quote(ctx context.Context, poolAsset, assetIn, assetOut common.Address, amount *big.Int, exactOutput bool) (*big.Int, error) {
	pool, err := s.registry.GetPool(poolAsset)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := swapReserves(pool, assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	if exactOutput {
		return cpmm.InputGivenOutput(amount, reserveIn, reserveOut)
	}
	return cpmm.OutputGivenInput(amount, reserveIn, reserveOut)
}

// Deposit adds liquidity for provider and pulls both asset legs from them.
func (s *PoolService) Deposit(ctx context.Context, provider, poolAsset common.Address, quoteIn, minLiquidity, maxTokenIn *big.Int, deadline time.Time) (*DepositResult, error) {
	pool, err := s.registry.GetPool(poolAsset)
	if err != nil {
		return nil, err
	}
	quoteAsset := s.registry.QuoteAsset()

	if err := s.checkFunds(ctx, quoteAsset, provider, quoteIn); err != nil {
		s.metrics.DepositsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusFailed).Inc()
		return nil, err
	}
	if err := s.checkFunds(ctx, poolAsset, provider, maxTokenIn); err != nil {
		s.metrics.DepositsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusFailed).Inc()
		return nil, err
	}

	minted, tokenIn, err := pool.Deposit(provider, quoteIn, minLiquidity, maxTokenIn, deadline)
	if err != nil {
		s.metrics.DepositsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusFailed).Inc()
		return nil, err
	}

	if err := s.ledger.TransferFrom(ctx, quoteAsset, provider, poolAccount(pool), quoteIn); err != nil {
		return nil, fmt.Errorf("pull quote leg: %w", err)
	}
	if err := s.ledger.TransferFrom(ctx, poolAsset, provider, poolAccount(pool), tokenIn); err != nil {
		return nil, fmt.Errorf("pull token leg: %w", err)
	}

	s.metrics.DepositsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusOK).Inc()
	s.emitter.LiquidityAdded(poolAsset.Hex(), events.LiquidityAdded{
		Provider:        provider.Hex(),
		QuoteIn:         quoteIn.String(),
		TokenIn:         tokenIn.String(),
		LiquidityMinted: minted.String(),
	})
	s.recordSnapshot(ctx, pool)

	return &DepositResult{LiquidityMinted: minted, QuoteIn: quoteIn, TokenIn: tokenIn}, nil
}

// Withdraw burns provider liquidity and pays both asset legs out to them.
func (s *PoolService) Withdraw(ctx context.Context, provider, poolAsset common.Address, liquidityIn, minQuoteOut, minTokenOut *big.Int, deadline time.Time) (*WithdrawResult, error) {
	pool, err := s.registry.GetPool(poolAsset)
	if err != nil {
		return nil, err
	}

	quoteOut, tokenOut, err := pool.Withdraw(provider, liquidityIn, minQuoteOut, minTokenOut, deadline)
	if err != nil {
		s.metrics.WithdrawalsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusFailed).Inc()
		return nil, err
	}

	if err := s.ledger.Transfer(ctx, s.registry.QuoteAsset(), poolAccount(pool), provider, quoteOut); err != nil {
		return nil, fmt.Errorf("pay quote leg: %w", err)
	}
	if err := s.ledger.Transfer(ctx, poolAsset, poolAccount(pool), provider, tokenOut); err != nil {
		return nil, fmt.Errorf("pay token leg: %w", err)
	}

	s.metrics.WithdrawalsTotal.WithLabelValues(poolAsset.Hex(), metrics.StatusOK).Inc()
	s.emitter.LiquidityRemoved(poolAsset.Hex(), events.LiquidityRemoved{
		Provider:        provider.Hex(),
		LiquidityBurned: liquidityIn.String(),
		QuoteOut:        quoteOut.String(),
		TokenOut:        tokenOut.String(),
	})
	s.recordSnapshot(ctx, pool)

	return &WithdrawResult{LiquidityBurned: liquidityIn, QuoteOut: quoteOut, TokenOut: tokenOut}, nil
}

// SwapExactInput sells exactly amountIn of assetIn for trader and returns the
// settled swap, including the exact amount received.
func (s *PoolService) SwapExactInput(ctx context.Context, trader, poolAsset, assetIn common.Address, amountIn *big.Int, assetOut common.Address, minOut *big.Int, deadline time.Time) (*SwapResult, error) {
	return s.swap(ctx, trader, poolAsset, "exact_in", func(pool *cpmm.Pool) (in, out *big.Int, err error) {
		if err := s.checkFunds(ctx, assetIn, trader, amountIn); err != nil {
			return nil, nil, err
		}
		out, err = pool.SwapExactInput(assetIn, amountIn, assetOut, minOut, deadline)
		return amountIn, out, err
	}, assetIn, assetOut)
}

// SwapExactOutput buys exactly amountOut of assetOut for trader, spending at
// most maxIn of assetIn, and returns the settled swap including the computed
// input.
func (s *PoolService) SwapExactOutput(ctx context.Context, trader, poolAsset, assetIn, assetOut common.Address, amountOut, maxIn *big.Int, deadline time.Time) (*SwapResult, error) {
	return s.swap(ctx, trader, poolAsset, "exact_out", func(pool *cpmm.Pool) (in, out *big.Int, err error) {
		if err := s.checkFunds(ctx, assetIn, trader, maxIn); err != nil {
			return nil, nil, err
		}
		in, err = pool.SwapExactOutput(assetIn, assetOut, amountOut, maxIn, deadline)
		return in, amountOut, err
	}, assetIn, assetOut)
}

// SellPoolTokens sells exactly tokensToSell of the pool asset for at least
// minQuoteOut of the quote asset. The amount is what the trader gives up, so
// this is exact-input semantics throughout.
func (s *PoolService) SellPoolTokens(ctx context.Context, trader, poolAsset common.Address, tokensToSell, minQuoteOut *big.Int, deadline time.Time) (*SwapResult, error) {
	return s.SwapExactInput(ctx, trader, poolAsset, poolAsset, tokensToSell, s.registry.QuoteAsset(), minQuoteOut, deadline)
}

func (s *PoolService) swap(ctx context.Context, trader, poolAsset common.Address, direction string, exec func(*cpmm.Pool) (in, out *big.Int, err error), assetIn, assetOut common.Address) (*SwapResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.SwapLatency.Observe(time.Since(start).Seconds())
	}()

	pool, err := s.registry.GetPool(poolAsset)
	if err != nil {
		return nil, err
	}

	in, out, err := exec(pool)
	if err != nil {
		s.metrics.SwapsTotal.WithLabelValues(poolAsset.Hex(), direction, metrics.StatusFailed).Inc()
		return nil, err
	}

	if err := s.ledger.TransferFrom(ctx, assetIn, trader, poolAccount(pool), in); err != nil {
		return nil, fmt.Errorf("pull input leg: %w", err)
	}
	if err := s.ledger.Transfer(ctx, assetOut, poolAccount(pool), trader, out); err != nil {
		return nil, fmt.Errorf("pay output leg: %w", err)
	}

	reserveQuote, reserveToken := pool.Reserves()
	s.metrics.SwapsTotal.WithLabelValues(poolAsset.Hex(), direction, metrics.StatusOK).Inc()
	s.emitter.Swap(poolAsset.Hex(), events.Swap{
		AssetIn:      assetIn.Hex(),
		AmountIn:     in.String(),
		AssetOut:     assetOut.Hex(),
		AmountOut:    out.String(),
		ReserveQuote: reserveQuote.String(),
		ReserveToken: reserveToken.String(),
	})

	s.logger.Debug("swap settled", "pool", poolAsset.Hex(), "direction", direction,
		"in", in.String(), "out", out.String())
	s.recordSnapshot(ctx, pool)

	return &SwapResult{
		AssetIn:      assetIn,
		AmountIn:     in,
		AssetOut:     assetOut,
		AmountOut:    out,
		ReserveQuote: reserveQuote,
		ReserveToken: reserveToken,
	}, nil
}

// recordSnapshot persists the pool's current reserves. Failures are logged
// and swallowed; snapshots are derived state.
func (s *PoolService) recordSnapshot(ctx context.Context, pool *cpmm.Pool) {
	if s.snapshots == nil {
		return
	}
	reserveQuote, reserveToken := pool.Reserves()
	err := s.snapshots.UpsertPoolSnapshot(ctx, pool.PoolAsset().Hex(), pool.QuoteAsset().Hex(),
		reserveQuote.String(), reserveToken.String(), pool.LiquiditySupply().String())
	if err != nil {
		s.logger.Error("snapshot upsert failed", "pool", pool.PoolAsset().Hex(), "err", err)
	}
}

// checkFunds verifies the payer can cover amount at operation start. The
// engine never re-queries balances mid-operation.
func (s *PoolService) checkFunds(ctx context.Context, asset, payer common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	bal, err := s.ledger.BalanceOf(ctx, asset, payer)
	if err != nil {
		return fmt.Errorf("balance of %s: %w", payer.Hex(), err)
	}
	if bal.Cmp(amount) < 0 {
		return custody.ErrInsufficientBalance
	}
	return nil
}

// poolAccount is the pool's custody account: one pool per pool asset, so the
// pool-asset address doubles as the treasury key.
func poolAccount(pool *cpmm.Pool) common.Address {
	return pool.PoolAsset()
}

// swapReserves maps a swap direction onto reserve values for quoting.
func swapReserves(pool *cpmm.Pool, assetIn, assetOut common.Address) (reserveIn, reserveOut *big.Int, err error) {
	if assetIn == assetOut {
		return nil, nil, cpmm.ErrSameAsset
	}
	reserveQuote, reserveToken := pool.Reserves()
	switch {
	case assetIn == pool.QuoteAsset() && assetOut == pool.PoolAsset():
		return reserveQuote, reserveToken, nil
	case assetIn == pool.PoolAsset() && assetOut == pool.QuoteAsset():
		return reserveToken, reserveQuote, nil
	default:
		return nil, nil, cpmm.ErrUnknownAsset
	}
}
