package cpmm

import (
	"math/big"
	"testing"
)

func BenchmarkOutputGivenInput(b *testing.B) {
	rIn := new(big.Int).SetUint64(13_451_234_567_890)
	rOut := new(big.Int).SetUint64(98_765_432_109_876)
	in := new(big.Int).SetUint64(1_000_000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = OutputGivenInput(in, rIn, rOut)
	}
}

func BenchmarkInputGivenOutput(b *testing.B) {
	rIn := new(big.Int).SetUint64(13_451_234_567_890)
	rOut := new(big.Int).SetUint64(98_765_432_109_876)
	out := new(big.Int).SetUint64(1_000_000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = InputGivenOutput(out, rIn, rOut)
	}
}
