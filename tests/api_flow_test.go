package tests

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/brenda87/tswap/internal/custody"
	"github.com/brenda87/tswap/internal/events"
	"github.com/brenda87/tswap/internal/handler"
	"github.com/brenda87/tswap/internal/metrics"
	"github.com/brenda87/tswap/internal/registry"
	"github.com/brenda87/tswap/internal/service"
	"github.com/brenda87/tswap/internal/storage"
)

var (
	quoteAsset = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	poolAsset  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	provider   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	trader     = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

// TestAPIFlow wires the stack the way cmd/api does (handlers over the service
// over the in-memory ledger, events to a JSONL sink) and drives one full
// lifecycle: create pool, deposit, quote, swap, sell, withdraw.
func TestAPIFlow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eventsPath := filepath.Join(t.TempDir(), "events.jsonl")

	ledger := custody.NewMemoryLedger()
	reg := registry.New(quoteAsset)
	emitters := events.MultiEmitter{
		events.NewSlogEmitter(logger),
		events.NewSinkEmitter(storage.NewJsonlSink(eventsPath), logger),
	}
	svc, err := service.NewPoolService(logger, reg, ledger, emitters, metrics.New(nil))
	if err != nil {
		t.Fatalf("NewPoolService error: %v", err)
	}
	h := handler.NewPoolHandler(logger, svc)

	app := fiber.New()
	app.Post("/pools", h.CreatePool())
	app.Get("/quote", h.Quote())
	app.Post("/deposit", h.Deposit())
	app.Post("/withdraw", h.Withdraw())
	app.Post("/swap/exact-in", h.SwapExactIn())
	app.Post("/swap/exact-out", h.SwapExactOut())
	app.Post("/sell", h.Sell())

	ledger.Mint(quoteAsset, provider, big.NewInt(10_000))
	ledger.Mint(poolAsset, provider, big.NewInt(10_000))
	ledger.Mint(poolAsset, trader, big.NewInt(1_000))

	deadline := time.Now().Add(time.Hour).Unix()

	// create pool
	resp := post(t, app, "/pools", map[string]any{"pool": poolAsset.Hex()})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pool status: %d", resp.StatusCode)
	}

	// first deposit fixes the 1:1 price and mints 1000
	resp = post(t, app, "/deposit", map[string]any{
		"pool": poolAsset.Hex(), "provider": provider.Hex(),
		"quote_in": "1000", "max_token_in": "1000", "deadline": deadline,
	})
	body := decode(t, resp)
	if resp.StatusCode != http.StatusOK || body["liquidity_minted"] != "1000" {
		t.Fatalf("deposit failed: status %d body %v", resp.StatusCode, body)
	}

	// quote matches the swap that follows
	req := httptest.NewRequest(http.MethodGet,
		"/quote?pool="+poolAsset.Hex()+"&src="+poolAsset.Hex()+"&dst="+quoteAsset.Hex()+"&amount=100", nil)
	qresp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	quoted, _ := io.ReadAll(qresp.Body)

	resp = post(t, app, "/swap/exact-in", map[string]any{
		"pool": poolAsset.Hex(), "trader": trader.Hex(),
		"asset_in": poolAsset.Hex(), "amount_in": "100",
		"asset_out": quoteAsset.Hex(), "min_out": "1", "deadline": deadline,
	})
	body = decode(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swap failed: status %d body %v", resp.StatusCode, body)
	}
	if body["amount_out"] != string(quoted) {
		t.Fatalf("swap settled %s but quote promised %s", body["amount_out"], quoted)
	}

	// sell is the exact-input convenience path
	resp = post(t, app, "/sell", map[string]any{
		"pool": poolAsset.Hex(), "trader": trader.Hex(),
		"tokens_to_sell": "50", "min_quote_out": "1", "deadline": deadline,
	})
	body = decode(t, resp)
	if resp.StatusCode != http.StatusOK || body["amount_in"] != "50" {
		t.Fatalf("sell failed: status %d body %v", resp.StatusCode, body)
	}

	// withdraw everything; rounding loss stays in the pool's favor
	resp = post(t, app, "/withdraw", map[string]any{
		"pool": poolAsset.Hex(), "provider": provider.Hex(),
		"liquidity_in": "1000", "deadline": deadline,
	})
	body = decode(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw failed: status %d body %v", resp.StatusCode, body)
	}

	// every settled operation produced one event line
	file, err := os.Open(eventsPath)
	if err != nil {
		t.Fatalf("open events file: %v", err)
	}
	defer file.Close()

	var lines int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var env events.Envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			t.Fatalf("event line %d invalid: %v", lines, err)
		}
		lines++
	}
	// deposit + swap + sell + withdraw
	if lines != 4 {
		t.Fatalf("expected 4 events, got %d", lines)
	}
}

func post(t *testing.T, app *fiber.App, path string, body map[string]any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]string{}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode response %q: %v", data, err)
	}
	return out
}
