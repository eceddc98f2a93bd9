// Package custody defines the asset transfer collaborator the pool engine
// delegates balance movements to, plus an in-memory implementation used by the
// service and its tests.
package custody

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInsufficientBalance is returned when a transfer exceeds the payer's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger is the custody contract consumed by the pool service. The engine
// treats its own reserve bookkeeping as authoritative; BalanceOf is consulted
// only at operation start.
type Ledger interface {
	BalanceOf(ctx context.Context, asset, account common.Address) (*big.Int, error)
	// TransferFrom pulls amount of asset from payer into the pool's account.
	TransferFrom(ctx context.Context, asset, payer, pool common.Address, amount *big.Int) error
	// Transfer pays amount of asset out of the pool's account to recipient.
	Transfer(ctx context.Context, asset, pool, recipient common.Address, amount *big.Int) error
}

// MemoryLedger is a process-local Ledger keyed by (asset, account).
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[common.Address]map[common.Address]*big.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[common.Address]map[common.Address]*big.Int)}
}

// Mint credits account with amount of asset. Used for seeding tests and
// development environments.
func (l *MemoryLedger) Mint(asset, account common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, account, amount)
}

func (l *MemoryLedger) BalanceOf(_ context.Context, asset, account common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if accounts, ok := l.balances[asset]; ok {
		if bal, ok := accounts[account]; ok {
			return new(big.Int).Set(bal), nil
		}
	}
	return big.NewInt(0), nil
}

func (l *MemoryLedger) TransferFrom(_ context.Context, asset, payer, pool common.Address, amount *big.Int) error {
	return l.move(asset, payer, pool, amount)
}

func (l *MemoryLedger) Transfer(_ context.Context, asset, pool, recipient common.Address, amount *big.Int) error {
	return l.move(asset, pool, recipient, amount)
}

func (l *MemoryLedger) move(asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := l.balances[asset]
	bal, ok := accounts[from]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	l.credit(asset, to, amount)
	return nil
}

// credit assumes the write lock is held.
func (l *MemoryLedger) credit(asset, account common.Address, amount *big.Int) {
	accounts, ok := l.balances[asset]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		l.balances[asset] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = big.NewInt(0)
		accounts[account] = bal
	}
	bal.Add(bal, amount)
}
