package cpmm

import (
	"math/big"
	"time"
)

// Shared preconditions for every state-mutating entry point. They run before
// any pricing computation or ledger mutation, so a rejected call leaves the
// pool exactly as it found it.

func checkDeadline(deadline, now time.Time) error {
	if deadline.Before(now) {
		return ErrDeadlineExpired
	}
	return nil
}

func checkAmount(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return ErrZeroAmount
	}
	return nil
}
