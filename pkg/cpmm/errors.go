package cpmm

import "errors"

// ErrDeadlineExpired is returned when a caller-supplied deadline is strictly
// before the current time.
var ErrDeadlineExpired = errors.New("deadline expired")

// ErrZeroAmount is returned when a user-controlled amount, or a reserve a
// pricing formula divides by, is zero.
var ErrZeroAmount = errors.New("amount must be greater than zero")

// ErrInsufficientReserve is returned when a requested output meets or exceeds
// the available output reserve.
var ErrInsufficientReserve = errors.New("requested output exceeds available reserve")

// ErrInsufficientSupply is returned when a burn exceeds the outstanding
// liquidity supply or the provider's balance.
var ErrInsufficientSupply = errors.New("burn exceeds outstanding liquidity")

// ErrSlippageExceeded is returned when a computed amount violates the
// caller-specified bound.
var ErrSlippageExceeded = errors.New("computed amount violates caller bound")

// ErrUnknownAsset is returned when a swap names an asset the pool does not hold.
var ErrUnknownAsset = errors.New("asset not held by pool")

// ErrSameAsset is returned when the input and output assets are identical.
var ErrSameAsset = errors.New("input and output assets cannot be the same")
