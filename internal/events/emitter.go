package events

import (
	"log/slog"
	"time"
)

// SlogEmitter logs every event with its schema fields in declared order.
type SlogEmitter struct {
	logger *slog.Logger
}

func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	return &SlogEmitter{logger: logger}
}

func (s *SlogEmitter) LiquidityAdded(pool string, e LiquidityAdded) {
	s.logger.Info("liquidity added", "pool", pool,
		"provider", e.Provider, "quote_in", e.QuoteIn, "token_in", e.TokenIn, "liquidity_minted", e.LiquidityMinted)
}

func (s *SlogEmitter) LiquidityRemoved(pool string, e LiquidityRemoved) {
	s.logger.Info("liquidity removed", "pool", pool,
		"provider", e.Provider, "liquidity_burned", e.LiquidityBurned, "quote_out", e.QuoteOut, "token_out", e.TokenOut)
}

func (s *SlogEmitter) Swap(pool string, e Swap) {
	s.logger.Info("swap", "pool", pool,
		"asset_in", e.AssetIn, "amount_in", e.AmountIn, "asset_out", e.AssetOut, "amount_out", e.AmountOut,
		"reserve_quote", e.ReserveQuote, "reserve_token", e.ReserveToken)
}

// SinkEmitter forwards events to a Sink one envelope at a time. Sink errors
// are logged and swallowed: the engine does not depend on the event system
// for correctness.
type SinkEmitter struct {
	sink   Sink
	logger *slog.Logger
	clock  func() time.Time
}

func NewSinkEmitter(sink Sink, logger *slog.Logger) *SinkEmitter {
	return &SinkEmitter{sink: sink, logger: logger, clock: time.Now}
}

func (s *SinkEmitter) put(eventType, pool string, data any) {
	env := Envelope{Type: eventType, Pool: pool, At: s.clock().UTC(), Data: data}
	if err := s.sink.PutEventBatch([]Envelope{env}); err != nil {
		s.logger.Error("event sink write failed", "type", eventType, "pool", pool, "err", err)
	}
}

func (s *SinkEmitter) LiquidityAdded(pool string, e LiquidityAdded) {
	s.put(TypeLiquidityAdded, pool, e)
}

func (s *SinkEmitter) LiquidityRemoved(pool string, e LiquidityRemoved) {
	s.put(TypeLiquidityRemoved, pool, e)
}

func (s *SinkEmitter) Swap(pool string, e Swap) {
	s.put(TypeSwap, pool, e)
}

// MultiEmitter fans one event out to several emitters.
type MultiEmitter []Emitter

func (m MultiEmitter) LiquidityAdded(pool string, e LiquidityAdded) {
	for _, em := range m {
		em.LiquidityAdded(pool, e)
	}
}

func (m MultiEmitter) LiquidityRemoved(pool string, e LiquidityRemoved) {
	for _, em := range m {
		em.LiquidityRemoved(pool, e)
	}
}

func (m MultiEmitter) Swap(pool string, e Swap) {
	for _, em := range m {
		em.Swap(pool, e)
	}
}
