package amm

import "testing"

func BenchmarkQuoteSwap(b *testing.B) {
	rIn := uint64(13_451_234_567_890)
	rOut := uint64(98_765_432_109_876)
	in := uint64(1_000_000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = QuoteSwap(rIn, rOut, in, 0)
	}
}
