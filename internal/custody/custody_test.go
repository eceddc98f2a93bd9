package custody

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	asset = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestMemoryLedger_Transfers(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(asset, alice, big.NewInt(100))

	if err := l.TransferFrom(ctx, asset, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("TransferFrom error: %v", err)
	}

	got, err := l.BalanceOf(ctx, asset, alice)
	if err != nil {
		t.Fatalf("BalanceOf error: %v", err)
	}
	if got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance: %s", got)
	}
	got, _ = l.BalanceOf(ctx, asset, bob)
	if got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob balance: %s", got)
	}
}

func TestMemoryLedger_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(asset, alice, big.NewInt(10))

	if err := l.Transfer(ctx, asset, alice, bob, big.NewInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	got, _ := l.BalanceOf(ctx, asset, alice)
	if got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("balance changed on failed transfer: %s", got)
	}
}

func TestMemoryLedger_BalanceCopies(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(asset, alice, big.NewInt(10))

	bal, _ := l.BalanceOf(ctx, asset, alice)
	bal.SetInt64(0)

	again, _ := l.BalanceOf(ctx, asset, alice)
	if again.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("BalanceOf leaked internal state: %s", again)
	}
}
