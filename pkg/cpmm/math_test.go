package cpmm

import (
	"errors"
	"math/big"
	"testing"
)

func TestOutputGivenInput_KnownValues(t *testing.T) {
	// reserves 100:100, 10 in => (10*997*100)/(100*1000+10*997) = 9.066 => 9
	out, err := OutputGivenInput(big.NewInt(10), big.NewInt(100), big.NewInt(100))
	if err != nil {
		t.Fatalf("OutputGivenInput error: %v", err)
	}
	if out.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("unexpected output: got %s want 9", out)
	}
}

func TestOutputGivenInput_ZeroGuards(t *testing.T) {
	if _, err := OutputGivenInput(big.NewInt(0), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount for zero input, got %v", err)
	}
	if _, err := OutputGivenInput(big.NewInt(10), big.NewInt(100), big.NewInt(0)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount for empty output reserve, got %v", err)
	}
}

func TestInputGivenOutput_KnownValues(t *testing.T) {
	// reserves 100:100, exactly 1 out => (100*1*1000)/(99*997) = 1.0132 => 1
	in, err := InputGivenOutput(big.NewInt(1), big.NewInt(100), big.NewInt(100))
	if err != nil {
		t.Fatalf("InputGivenOutput error: %v", err)
	}
	if in.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("unexpected input: got %s want 1", in)
	}
}

func TestInputGivenOutput_Rejections(t *testing.T) {
	if _, err := InputGivenOutput(big.NewInt(0), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount for zero output, got %v", err)
	}
	if _, err := InputGivenOutput(big.NewInt(1), big.NewInt(100), big.NewInt(0)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount for empty output reserve, got %v", err)
	}
	if _, err := InputGivenOutput(big.NewInt(100), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve for output == reserve, got %v", err)
	}
	if _, err := InputGivenOutput(big.NewInt(101), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrInsufficientReserve) {
		t.Fatalf("expected ErrInsufficientReserve for output > reserve, got %v", err)
	}
}

// The exact-output formula truncates, which undershoots the true fee-inclusive
// input by at most one unit and so slightly favors the trader. This pins that
// direction down: whenever the division leaves a remainder, the returned input
// is strictly below the untruncated quotient.
func TestInputGivenOutput_RoundingDirection(t *testing.T) {
	reserveIn, reserveOut, amountOut := big.NewInt(100), big.NewInt(100), big.NewInt(1)

	in, err := InputGivenOutput(amountOut, reserveIn, reserveOut)
	if err != nil {
		t.Fatalf("InputGivenOutput error: %v", err)
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, big.NewInt(1000))
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, big.NewInt(997))

	rem := new(big.Int).Mod(numerator, denominator)
	if rem.Sign() == 0 {
		t.Fatalf("scenario expected a truncating division, remainder is zero")
	}
	// in * denominator < numerator, i.e. the trader pays less than the exact quotient.
	paid := new(big.Int).Mul(in, denominator)
	if paid.Cmp(numerator) >= 0 {
		t.Fatalf("expected truncation toward the trader: %s * %s >= %s", in, denominator, numerator)
	}
}

// Round-tripping an exact-output quote through the forward formula must never
// produce more than the requested output, and must stay within a small
// truncation tolerance of it.
func TestInverseFormulaConsistency(t *testing.T) {
	reserves := []int64{100, 1_000, 50_000, 1_000_000, 13_451_234_567}
	for _, rIn := range reserves {
		for _, rOut := range reserves {
			for _, frac := range []int64{1000, 100, 10, 2} {
				amountOut := rOut / frac
				if amountOut == 0 {
					continue
				}
				in, err := InputGivenOutput(big.NewInt(amountOut), big.NewInt(rIn), big.NewInt(rOut))
				if err != nil {
					t.Fatalf("InputGivenOutput(%d, %d, %d): %v", amountOut, rIn, rOut, err)
				}
				if in.Sign() == 0 {
					continue
				}
				roundTrip, err := OutputGivenInput(in, big.NewInt(rIn), big.NewInt(rOut))
				if err != nil {
					t.Fatalf("OutputGivenInput(%s, %d, %d): %v", in, rIn, rOut, err)
				}
				if roundTrip.Cmp(big.NewInt(amountOut)) > 0 {
					t.Fatalf("pool would over-pay: requested %d, round trip %s (rIn=%d rOut=%d)", amountOut, roundTrip, rIn, rOut)
				}
				diff := new(big.Int).Sub(big.NewInt(amountOut), roundTrip)
				if diff.Cmp(big.NewInt(2)) > 0 {
					t.Fatalf("round trip drift too large: requested %d, got %s (rIn=%d rOut=%d)", amountOut, roundTrip, rIn, rOut)
				}
			}
		}
	}
}

func TestPricing_DoesNotMutateArguments(t *testing.T) {
	amount := big.NewInt(10)
	rIn := big.NewInt(100)
	rOut := big.NewInt(100)

	if _, err := OutputGivenInput(amount, rIn, rOut); err != nil {
		t.Fatalf("OutputGivenInput error: %v", err)
	}
	if _, err := InputGivenOutput(amount, rIn, rOut); err != nil {
		t.Fatalf("InputGivenOutput error: %v", err)
	}

	if amount.Cmp(big.NewInt(10)) != 0 || rIn.Cmp(big.NewInt(100)) != 0 || rOut.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("arguments mutated: amount=%s rIn=%s rOut=%s", amount, rIn, rOut)
	}
}
