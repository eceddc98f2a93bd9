// Package events carries the structured records the pool service emits for
// off-chain consumers. Field order in the record structs is the declared event
// schema; emitters and sinks must preserve it.
package events

import "time"

// LiquidityAdded is emitted after a successful deposit settles.
type LiquidityAdded struct {
	Provider        string `json:"provider"`
	QuoteIn         string `json:"quote_in"`
	TokenIn         string `json:"token_in"`
	LiquidityMinted string `json:"liquidity_minted"`
}

// LiquidityRemoved is emitted after a successful withdrawal settles.
type LiquidityRemoved struct {
	Provider        string `json:"provider"`
	LiquidityBurned string `json:"liquidity_burned"`
	QuoteOut        string `json:"quote_out"`
	TokenOut        string `json:"token_out"`
}

// Swap is emitted after a successful swap settles. Reserves are the final
// post-commit values.
type Swap struct {
	AssetIn      string `json:"asset_in"`
	AmountIn     string `json:"amount_in"`
	AssetOut     string `json:"asset_out"`
	AmountOut    string `json:"amount_out"`
	ReserveQuote string `json:"reserve_quote"`
	ReserveToken string `json:"reserve_token"`
}

// Envelope wraps a record with its type, pool, and emission time for sinks.
type Envelope struct {
	Type string    `json:"type"`
	Pool string    `json:"pool"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

const (
	TypeLiquidityAdded   = "liquidity_added"
	TypeLiquidityRemoved = "liquidity_removed"
	TypeSwap             = "swap"
)

// Emitter is the observability collaborator. Emission happens after commit
// and never affects engine correctness; implementations must not fail the
// calling operation.
type Emitter interface {
	LiquidityAdded(pool string, e LiquidityAdded)
	LiquidityRemoved(pool string, e LiquidityRemoved)
	Swap(pool string, e Swap)
}

// Sink receives event envelopes in batches for durable off-chain consumption.
type Sink interface {
	PutEventBatch(events []Envelope) error
}
