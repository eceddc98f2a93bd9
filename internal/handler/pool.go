package handler

import (
	"errors"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/brenda87/tswap/internal/custody"
	"github.com/brenda87/tswap/internal/registry"
	"github.com/brenda87/tswap/internal/service"
	"github.com/brenda87/tswap/pkg/cpmm"
)

// PoolHandler exposes the pool service over HTTP.
type PoolHandler struct {
	BaseHandler
	service *service.PoolService
}

func NewPoolHandler(logger *slog.Logger, svc *service.PoolService) *PoolHandler {
	return &PoolHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     svc,
	}
}

type CreatePoolRequest struct {
	Pool string `json:"pool"`
}

type QuoteRequest struct {
	Pool   string `query:"pool" json:"pool"`
	Src    string `query:"src" json:"src"`
	Dst    string `query:"dst" json:"dst"`
	Amount string `query:"amount" json:"amount"`
	Exact  string `query:"exact" json:"exact"`
}

type DepositRequest struct {
	Pool         string `json:"pool"`
	Provider     string `json:"provider"`
	QuoteIn      string `json:"quote_in"`
	MinLiquidity string `json:"min_liquidity"`
	MaxTokenIn   string `json:"max_token_in"`
	Deadline     int64  `json:"deadline"`
}

type WithdrawRequest struct {
	Pool        string `json:"pool"`
	Provider    string `json:"provider"`
	LiquidityIn string `json:"liquidity_in"`
	MinQuoteOut string `json:"min_quote_out"`
	MinTokenOut string `json:"min_token_out"`
	Deadline    int64  `json:"deadline"`
}

type SwapExactInRequest struct {
	Pool     string `json:"pool"`
	Trader   string `json:"trader"`
	AssetIn  string `json:"asset_in"`
	AmountIn string `json:"amount_in"`
	AssetOut string `json:"asset_out"`
	MinOut   string `json:"min_out"`
	Deadline int64  `json:"deadline"`
}

type SwapExactOutRequest struct {
	Pool      string `json:"pool"`
	Trader    string `json:"trader"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountOut string `json:"amount_out"`
	MaxIn     string `json:"max_in"`
	Deadline  int64  `json:"deadline"`
}

type SellRequest struct {
	Pool         string `json:"pool"`
	Trader       string `json:"trader"`
	TokensToSell string `json:"tokens_to_sell"`
	MinQuoteOut  string `json:"min_quote_out"`
	Deadline     int64  `json:"deadline"`
}

// CreatePool handles POST /pools.
func (h *PoolHandler) CreatePool() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req CreatePoolRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}
		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}

		if _, err := h.service.CreatePool(c.Context(), pool); err != nil {
			return h.handleServiceError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"pool":  pool.Hex(),
			"quote": h.service.QuoteAsset().Hex(),
		})
	}
}

// ListPools handles GET /pools.
func (h *PoolHandler) ListPools() fiber.Handler {
	return func(c fiber.Ctx) error {
		pools := h.service.ListPools(c.Context())
		out := make([]fiber.Map, 0, len(pools))
		for _, p := range pools {
			out = append(out, fiber.Map{
				"pool":             p.PoolAsset.Hex(),
				"quote":            h.service.QuoteAsset().Hex(),
				"reserve_quote":    p.ReserveQuote.String(),
				"reserve_token":    p.ReserveToken.String(),
				"liquidity_supply": p.LiquiditySupply.String(),
			})
		}
		return c.JSON(out)
	}
}

// Quote handles GET /quote. With exact=out the amount is the desired output
// and the response carries the required input.
func (h *PoolHandler) Quote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req QuoteRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		src, err := h.parseAddress("src", req.Src)
		if err != nil {
			return err
		}
		dst, err := h.parseAddress("dst", req.Dst)
		if err != nil {
			return err
		}
		amount, err := h.parseAmount("amount", req.Amount)
		if err != nil {
			return err
		}
		exactOutput := req.Exact == "out"

		quoted, err := h.service.Quote(c.Context(), pool, src, dst, amount, exactOutput)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.SendString(quoted.String())
	}
}

// Deposit handles POST /deposit.
func (h *PoolHandler) Deposit() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req DepositRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		provider, err := h.parseAddress("provider", req.Provider)
		if err != nil {
			return err
		}
		quoteIn, err := h.parseAmount("quote_in", req.QuoteIn)
		if err != nil {
			return err
		}
		maxTokenIn, err := h.parseAmount("max_token_in", req.MaxTokenIn)
		if err != nil {
			return err
		}
		minLiquidity, err := h.parseOptionalAmount("min_liquidity", req.MinLiquidity)
		if err != nil {
			return err
		}
		deadline, err := h.parseDeadline(req.Deadline)
		if err != nil {
			return err
		}

		res, err := h.service.Deposit(c.Context(), provider, pool, quoteIn, minLiquidity, maxTokenIn, deadline)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(fiber.Map{
			"liquidity_minted": res.LiquidityMinted.String(),
			"quote_in":         res.QuoteIn.String(),
			"token_in":         res.TokenIn.String(),
		})
	}
}

// Withdraw handles POST /withdraw.
func (h *PoolHandler) Withdraw() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req WithdrawRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		provider, err := h.parseAddress("provider", req.Provider)
		if err != nil {
			return err
		}
		liquidityIn, err := h.parseAmount("liquidity_in", req.LiquidityIn)
		if err != nil {
			return err
		}
		minQuoteOut, err := h.parseOptionalAmount("min_quote_out", req.MinQuoteOut)
		if err != nil {
			return err
		}
		minTokenOut, err := h.parseOptionalAmount("min_token_out", req.MinTokenOut)
		if err != nil {
			return err
		}
		deadline, err := h.parseDeadline(req.Deadline)
		if err != nil {
			return err
		}

		res, err := h.service.Withdraw(c.Context(), provider, pool, liquidityIn, minQuoteOut, minTokenOut, deadline)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(fiber.Map{
			"liquidity_burned": res.LiquidityBurned.String(),
			"quote_out":        res.QuoteOut.String(),
			"token_out":        res.TokenOut.String(),
		})
	}
}

// SwapExactIn handles POST /swap/exact-in.
func (h *PoolHandler) SwapExactIn() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req SwapExactInRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		trader, err := h.parseAddress("trader", req.Trader)
		if err != nil {
			return err
		}
		assetIn, err := h.parseAddress("asset_in", req.AssetIn)
		if err != nil {
			return err
		}
		assetOut, err := h.parseAddress("asset_out", req.AssetOut)
		if err != nil {
			return err
		}
		amountIn, err := h.parseAmount("amount_in", req.AmountIn)
		if err != nil {
			return err
		}
		minOut, err := h.parseOptionalAmount("min_out", req.MinOut)
		if err != nil {
			return err
		}
		deadline, err := h.parseDeadline(req.Deadline)
		if err != nil {
			return err
		}

		res, err := h.service.SwapExactInput(c.Context(), trader, pool, assetIn, amountIn, assetOut, minOut, deadline)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(swapResponse(res))
	}
}

// SwapExactOut handles POST /swap/exact-out. The input bound is mandatory.
func (h *PoolHandler) SwapExactOut() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req SwapExactOutRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		trader, err := h.parseAddress("trader", req.Trader)
		if err != nil {
			return err
		}
		assetIn, err := h.parseAddress("asset_in", req.AssetIn)
		if err != nil {
			return err
		}
		assetOut, err := h.parseAddress("asset_out", req.AssetOut)
		if err != nil {
			return err
		}
		amountOut, err := h.parseAmount("amount_out", req.AmountOut)
		if err != nil {
			return err
		}
		if req.MaxIn == "" {
			return ErrMaxInputRequired
		}
		maxIn, err := h.parseAmount("max_in", req.MaxIn)
		if err != nil {
			return err
		}
		deadline, err := h.parseDeadline(req.Deadline)
		if err != nil {
			return err
		}

		res, err := h.service.SwapExactOutput(c.Context(), trader, pool, assetIn, assetOut, amountOut, maxIn, deadline)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(swapResponse(res))
	}
}

// Sell handles POST /sell: exact-input sale of pool tokens for the quote asset.
func (h *PoolHandler) Sell() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req SellRequest
		if err := c.Bind().Body(&req); err != nil {
			return ErrInvalidBody
		}

		pool, err := h.parseAddress("pool", req.Pool)
		if err != nil {
			return err
		}
		trader, err := h.parseAddress("trader", req.Trader)
		if err != nil {
			return err
		}
		tokensToSell, err := h.parseAmount("tokens_to_sell", req.TokensToSell)
		if err != nil {
			return err
		}
		minQuoteOut, err := h.parseOptionalAmount("min_quote_out", req.MinQuoteOut)
		if err != nil {
			return err
		}
		deadline, err := h.parseDeadline(req.Deadline)
		if err != nil {
			return err
		}

		res, err := h.service.SellPoolTokens(c.Context(), trader, pool, tokensToSell, minQuoteOut, deadline)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(swapResponse(res))
	}
}

func swapResponse(res *service.SwapResult) fiber.Map {
	return fiber.Map{
		"asset_in":      res.AssetIn.Hex(),
		"amount_in":     res.AmountIn.String(),
		"asset_out":     res.AssetOut.Hex(),
		"amount_out":    res.AmountOut.String(),
		"reserve_quote": res.ReserveQuote.String(),
		"reserve_token": res.ReserveToken.String(),
	}
}

func (h *PoolHandler) parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, NewAddressRequired(field)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, NewInvalidAddress(field)
	}
	return common.HexToAddress(value), nil
}

func (h *PoolHandler) parseAmount(field, amountStr string) (*big.Int, error) {
	if amountStr == "" {
		return nil, ErrAmountRequired
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, NewInvalidAmount(field, ErrInvalidAmountFormat)
	}
	if amount.Sign() <= 0 {
		return nil, NewInvalidAmount(field, ErrAmountNonPositive)
	}
	return amount, nil
}

// parseOptionalAmount treats an empty field as "no bound".
func (h *PoolHandler) parseOptionalAmount(field, amountStr string) (*big.Int, error) {
	if amountStr == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, NewInvalidAmount(field, ErrInvalidAmountFormat)
	}
	if amount.Sign() < 0 {
		return nil, NewInvalidAmount(field, ErrAmountNonPositive)
	}
	return amount, nil
}

func (h *PoolHandler) parseDeadline(unixSeconds int64) (time.Time, error) {
	if unixSeconds <= 0 {
		return time.Time{}, ErrDeadlineRequired
	}
	return time.Unix(unixSeconds, 0), nil
}

func (h *PoolHandler) handleServiceError(err error) error {
	switch {
	case errors.Is(err, cpmm.ErrDeadlineExpired),
		errors.Is(err, cpmm.ErrZeroAmount),
		errors.Is(err, cpmm.ErrSameAsset),
		errors.Is(err, cpmm.ErrUnknownAsset):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, cpmm.ErrSlippageExceeded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, cpmm.ErrInsufficientReserve),
		errors.Is(err, cpmm.ErrInsufficientSupply),
		errors.Is(err, custody.ErrInsufficientBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, registry.ErrPoolNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrPoolExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		h.logger.Error("pool operation failed", "err", err)
		return ErrInternal
	}
}
