// Package amm implements the constant-product pricing used for swaps.
//
// Fees are charged on the output side: the constant-product output is
// computed first and 3% of it is withheld afterwards. Integrators computing
// an expected output must apply the fee after the curve, not before.
package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// FeeNumerator / FeeDenominator is the output-side swap fee (3%).
	FeeNumerator   = 3
	FeeDenominator = 100
)

// Quote is the breakdown of a single swap priced from live reserves.
type Quote struct {
	GrossOut uint64
	Fee      uint64
	NetOut   uint64
}

// QuoteSwap prices amountIn against the given reserves and enforces the
// minAmountOut floor. Checks run in a fixed order: narrowing, reserve
// bound, slippage.
func QuoteSwap(reserveIn, reserveOut, amountIn, minAmountOut uint64) (Quote, error) {
	gross, fee, net, err := curveOut(reserveIn, reserveOut, amountIn)
	if err != nil {
		return Quote{}, err
	}

	if !gross.IsUint64() || !net.IsUint64() {
		return Quote{}, fmt.Errorf("narrow output: %w", ErrCalculation)
	}
	q := Quote{GrossOut: gross.Uint64(), Fee: fee.Uint64(), NetOut: net.Uint64()}

	if q.NetOut > reserveOut {
		return Quote{}, ErrReserveExceeded
	}
	if q.NetOut < minAmountOut {
		return Quote{}, fmt.Errorf("%w: net out %d below minimum %d", ErrSlippageExceeded, q.NetOut, minAmountOut)
	}
	return q, nil
}

// curveOut returns grossOut, fee and netOut as wide integers.
func curveOut(reserveIn, reserveOut, amountIn uint64) (*uint256.Int, *uint256.Int, *uint256.Int, error) {
	rIn := uint256.NewInt(reserveIn)
	rOut := uint256.NewInt(reserveOut)

	k, overflow := new(uint256.Int).MulOverflow(rIn, rOut)
	if overflow {
		return nil, nil, nil, fmt.Errorf("invariant product: %w", ErrCalculation)
	}

	denom, overflow := new(uint256.Int).AddOverflow(rIn, uint256.NewInt(amountIn))
	if overflow {
		return nil, nil, nil, fmt.Errorf("reserve plus input: %w", ErrCalculation)
	}
	if denom.IsZero() {
		return nil, nil, nil, fmt.Errorf("empty input side: %w", ErrCalculation)
	}

	// floor division: the remaining out-reserve rounds down, so grossOut
	// rounds up by at most one unit
	remaining := new(uint256.Int).Div(k, denom)
	gross, underflow := new(uint256.Int).SubOverflow(rOut, remaining)
	if underflow {
		return nil, nil, nil, fmt.Errorf("gross output: %w", ErrCalculation)
	}

	fee := new(uint256.Int).Mul(gross, uint256.NewInt(FeeNumerator))
	fee.Div(fee, uint256.NewInt(FeeDenominator))

	net, underflow := new(uint256.Int).SubOverflow(gross, fee)
	if underflow {
		return nil, nil, nil, fmt.Errorf("net output: %w", ErrCalculation)
	}
	return gross, fee, net, nil
}
