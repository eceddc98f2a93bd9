package cpmm

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one constant-product pool instance pairing a pool asset with the
// protocol's quote asset. All amounts are unsigned integers in the assets'
// base units.
//
// Every operation is a single atomic transition: read state, compute, commit.
// A mutex serializes operations on one pool; distinct pools share no mutable
// state and proceed fully in parallel. Guard failures abort before any
// mutation, so the reserves, supply, and provider balances a failed call
// observed are exactly the ones it leaves behind.
type Pool struct {
	mu sync.Mutex

	poolAsset  common.Address
	quoteAsset common.Address

	reserveQuote    *big.Int
	reserveToken    *big.Int
	liquiditySupply *big.Int
	liquidity       map[common.Address]*big.Int

	clock func() time.Time
}

// NewPool constructs an empty pool (zero reserves, zero liquidity supply) for
// the given pair. The first deposit establishes the initial exchange rate.
func NewPool(poolAsset, quoteAsset common.Address) (*Pool, error) {
	if poolAsset == quoteAsset {
		return nil, ErrSameAsset
	}
	return &Pool{
		poolAsset:       poolAsset,
		quoteAsset:      quoteAsset,
		reserveQuote:    big.NewInt(0),
		reserveToken:    big.NewInt(0),
		liquiditySupply: big.NewInt(0),
		liquidity:       make(map[common.Address]*big.Int),
		clock:           time.Now,
	}, nil
}

// WithClock overrides the pool clock for deterministic deadline tests.
func (p *Pool) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
}

// PoolAsset returns the pooled asset's address.
func (p *Pool) PoolAsset() common.Address { return p.poolAsset }

// QuoteAsset returns the quote asset's address.
func (p *Pool) QuoteAsset() common.Address { return p.quoteAsset }

// Reserves returns copies of the current quote and pool-token reserves.
func (p *Pool) Reserves() (reserveQuote, reserveToken *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.reserveQuote), new(big.Int).Set(p.reserveToken)
}

// LiquiditySupply returns a copy of the outstanding liquidity-token supply.
func (p *Pool) LiquiditySupply() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.liquiditySupply)
}

// LiquidityBalance returns a copy of the provider's liquidity-token balance.
func (p *Pool) LiquidityBalance(provider common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bal, ok := p.liquidity[provider]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Deposit adds liquidity denominated in the quote asset and mints liquidity
// tokens preserving proportional ownership.
//
// On the first deposit (zero supply) the call fixes the initial price: it
// takes quoteIn and exactly maxTokenIn of the pool asset, and mints liquidity
// 1:1 with quoteIn. Afterwards the pool-token side is derived from the current
// ratio, tokenIn = quoteIn * reserveToken / reserveQuote, and the mint is
// quoteIn * supply / reserveQuote.
//
// It returns the liquidity minted and the pool-token amount the caller owes,
// so the custody collaborator can be instructed to pull both sides.
func (p *Pool) Deposit(provider common.Address, quoteIn, minLiquidity, maxTokenIn *big.Int, deadline time.Time) (minted, tokenIn *big.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkDeadline(deadline, p.clock()); err != nil {
		return nil, nil, err
	}
	if err := checkAmount(quoteIn); err != nil {
		return nil, nil, err
	}

	if p.liquiditySupply.Sign() == 0 {
		// First deposit sets the price; both sides must be funded.
		if err := checkAmount(maxTokenIn); err != nil {
			return nil, nil, err
		}
		tokenIn = new(big.Int).Set(maxTokenIn)
		minted = new(big.Int).Set(quoteIn)
	} else {
		tokenIn = new(big.Int).Mul(quoteIn, p.reserveToken)
		tokenIn.Div(tokenIn, p.reserveQuote)
		if maxTokenIn != nil && tokenIn.Cmp(maxTokenIn) > 0 {
			return nil, nil, ErrSlippageExceeded
		}
		minted = new(big.Int).Mul(quoteIn, p.liquiditySupply)
		minted.Div(minted, p.reserveQuote)
	}
	if minLiquidity != nil && minted.Cmp(minLiquidity) < 0 {
		return nil, nil, ErrSlippageExceeded
	}

	p.reserveQuote.Add(p.reserveQuote, quoteIn)
	p.reserveToken.Add(p.reserveToken, tokenIn)
	p.liquiditySupply.Add(p.liquiditySupply, minted)
	p.credit(provider, minted)

	return minted, tokenIn, nil
}

// Withdraw burns liquidity tokens and redeems the proportional share of both
// reserves, computed against the supply before the burn.
func (p *Pool) Withdraw(provider common.Address, liquidityIn, minQuoteOut, minTokenOut *big.Int, deadline time.Time) (quoteOut, tokenOut *big.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkDeadline(deadline, p.clock()); err != nil {
		return nil, nil, err
	}
	if err := checkAmount(liquidityIn); err != nil {
		return nil, nil, err
	}
	if liquidityIn.Cmp(p.liquiditySupply) > 0 {
		return nil, nil, ErrInsufficientSupply
	}
	bal, ok := p.liquidity[provider]
	if !ok || liquidityIn.Cmp(bal) > 0 {
		return nil, nil, ErrInsufficientSupply
	}

	quoteOut = new(big.Int).Mul(liquidityIn, p.reserveQuote)
	quoteOut.Div(quoteOut, p.liquiditySupply)
	tokenOut = new(big.Int).Mul(liquidityIn, p.reserveToken)
	tokenOut.Div(tokenOut, p.liquiditySupply)

	if minQuoteOut != nil && quoteOut.Cmp(minQuoteOut) < 0 {
		return nil, nil, ErrSlippageExceeded
	}
	if minTokenOut != nil && tokenOut.Cmp(minTokenOut) < 0 {
		return nil, nil, ErrSlippageExceeded
	}

	p.reserveQuote.Sub(p.reserveQuote, quoteOut)
	p.reserveToken.Sub(p.reserveToken, tokenOut)
	p.liquiditySupply.Sub(p.liquiditySupply, liquidityIn)
	bal.Sub(bal, liquidityIn)

	return quoteOut, tokenOut, nil
}

// SwapExactInput sells exactly amountIn of assetIn for at least minOut of
// assetOut and returns the computed output. A nil minOut means no bound.
func (p *Pool) SwapExactInput(assetIn common.Address, amountIn *big.Int, assetOut common.Address, minOut *big.Int, deadline time.Time) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkDeadline(deadline, p.clock()); err != nil {
		return nil, err
	}
	if err := checkAmount(amountIn); err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := p.reservesFor(assetIn, assetOut)
	if err != nil {
		return nil, err
	}

	out, err := OutputGivenInput(amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if minOut != nil && out.Cmp(minOut) < 0 {
		return nil, ErrSlippageExceeded
	}

	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, out)

	return out, nil
}

// SwapExactOutput buys exactly amountOut of assetOut for at most maxIn of
// assetIn and returns the computed input. The input bound is not optional in
// the public surface: without it the caller is exposed to any price movement
// between submission and settlement. A nil maxIn is honored here only so
// internal quoting paths can reuse the method.
func (p *Pool) SwapExactOutput(assetIn, assetOut common.Address, amountOut, maxIn *big.Int, deadline time.Time) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkDeadline(deadline, p.clock()); err != nil {
		return nil, err
	}
	if err := checkAmount(amountOut); err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := p.reservesFor(assetIn, assetOut)
	if err != nil {
		return nil, err
	}

	in, err := InputGivenOutput(amountOut, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if maxIn != nil && in.Cmp(maxIn) > 0 {
		return nil, ErrSlippageExceeded
	}

	reserveIn.Add(reserveIn, in)
	reserveOut.Sub(reserveOut, amountOut)

	return in, nil
}

// SellPoolTokens sells exactly tokensToSell of the pool asset for at least
// minQuoteOut of the quote asset. The caller's amount is the quantity given
// up, so this delegates to the exact-input path and returns the quote amount
// received.
func (p *Pool) SellPoolTokens(tokensToSell, minQuoteOut *big.Int, deadline time.Time) (*big.Int, error) {
	return p.SwapExactInput(p.poolAsset, tokensToSell, p.quoteAsset, minQuoteOut, deadline)
}

// reservesFor resolves the live reserve cells for a swap direction. The
// returned values alias pool state; callers hold the mutex.
func (p *Pool) reservesFor(assetIn, assetOut common.Address) (reserveIn, reserveOut *big.Int, err error) {
	if assetIn == assetOut {
		return nil, nil, ErrSameAsset
	}
	switch {
	case assetIn == p.quoteAsset && assetOut == p.poolAsset:
		return p.reserveQuote, p.reserveToken, nil
	case assetIn == p.poolAsset && assetOut == p.quoteAsset:
		return p.reserveToken, p.reserveQuote, nil
	default:
		return nil, nil, ErrUnknownAsset
	}
}

func (p *Pool) credit(provider common.Address, amount *big.Int) {
	bal, ok := p.liquidity[provider]
	if !ok {
		bal = big.NewInt(0)
		p.liquidity[provider] = bal
	}
	bal.Add(bal, amount)
}
