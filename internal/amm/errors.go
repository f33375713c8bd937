package amm

import "errors"

var (
	// ErrCalculation covers wide-arithmetic overflow, subtraction underflow,
	// division by zero and lossy narrowing back to 64 bits.
	ErrCalculation = errors.New("calculation error")

	// ErrReserveExceeded is returned when the net output would exceed the
	// output reserve. The constant-product formula should make this
	// unreachable; the check stays anyway.
	ErrReserveExceeded = errors.New("output exceeds reserve")

	// ErrSlippageExceeded is returned when the net output is below the
	// caller's minimum.
	ErrSlippageExceeded = errors.New("slippage exceeded")
)
