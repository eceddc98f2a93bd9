// Package cpmm implements a two-asset constant-product pool: pricing math,
// liquidity accounting, and the serialized per-pool state machine.
package cpmm

import "math/big"

// fee: 0.3% => the input keeps 997/1000 of its weight after the fee
var (
	feeAdjusted = big.NewInt(997)
	feeScale    = big.NewInt(1000)
)

// OutputGivenInput prices an exact-input swap against the given reserves:
//
//	out = (in * 997 * reserveOut) / (reserveIn * 1000 + in * 997)
//
// The fee is deducted from the input before the invariant is applied.
// Multiplication happens before division to preserve precision; truncating
// division rounds the payout down, in the pool's favor. The arguments are
// never mutated.
func OutputGivenInput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	inWithFee := new(big.Int).Mul(amountIn, feeAdjusted)
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeScale)
	denominator.Add(denominator, inWithFee)
	return numerator.Div(numerator, denominator), nil
}

// InputGivenOutput prices an exact-output swap against the given reserves:
//
//	in = (reserveIn * out * 1000) / ((reserveOut - out) * 997)
//
// The 1000/997 scale is the exact reciprocal of the forward formula's fee
// convention; any other scale silently changes the effective fee rate.
// Truncating division undershoots the true fee-inclusive input by at most one
// unit, so the required input slightly favors the trader on some inputs.
func InputGivenOutput(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientReserve
	}
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, feeScale)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeAdjusted)
	return numerator.Div(numerator, denominator), nil
}
