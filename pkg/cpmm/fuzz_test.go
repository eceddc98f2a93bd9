package cpmm

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// FuzzSwapExactInput drives random exact-input swaps against a deep pool and
// checks that the reserve product never decreases and that the payout never
// leaves the output side empty.
func FuzzSwapExactInput(f *testing.F) {
	seeds := []uint64{1, 1_000, 10_000, 100_000, 1_000_000, 99_000, 500_000, 100_000_000, 9_999_999_999_999}
	for _, s := range seeds {
		f.Add(s, true)
		f.Add(s, false)
	}

	f.Fuzz(func(t *testing.T, amountRaw uint64, sellToken bool) {
		if amountRaw == 0 {
			return
		}
		// keep the trade within an order of magnitude of the reserves
		amountIn := new(big.Int).SetUint64(amountRaw % 10_000_000_000)
		if amountIn.Sign() == 0 {
			return
		}

		p, err := NewPool(testToken, testQuote)
		require.NoError(t, err)
		p.WithClock(func() time.Time { return testNow })

		reserve := big.NewInt(1_000_000_000)
		_, _, err = p.Deposit(testProvider, reserve, nil, reserve, testDeadline())
		require.NoError(t, err)

		assetIn, assetOut := testQuote, testToken
		if sellToken {
			assetIn, assetOut = testToken, testQuote
		}

		rqBefore, rtBefore := p.Reserves()
		kBefore := new(big.Int).Mul(rqBefore, rtBefore)

		out, err := p.SwapExactInput(assetIn, amountIn, assetOut, nil, testDeadline())
		if err != nil {
			// only the zero-payout rejection is acceptable here
			require.ErrorIs(t, err, ErrZeroAmount)
			return
		}

		rqAfter, rtAfter := p.Reserves()
		kAfter := new(big.Int).Mul(rqAfter, rtAfter)

		require.True(t, kAfter.Cmp(kBefore) >= 0, "invariant decreased: %s -> %s", kBefore, kAfter)
		require.True(t, out.Sign() >= 0)
		require.True(t, rqAfter.Sign() > 0 && rtAfter.Sign() > 0, "a swap drained a reserve")
	})
}
