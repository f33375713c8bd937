package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places used for display prices.
const PricePrecision = 12

// SpotPrice returns reserveOut/reserveIn, the marginal price before fees.
// It is for display only and never feeds back into QuoteSwap.
func SpotPrice(reserveIn, reserveOut uint64) decimal.Decimal {
	if reserveIn == 0 {
		return decimal.Zero
	}
	return toDecimal(reserveOut).DivRound(toDecimal(reserveIn), PricePrecision)
}

// EffectivePrice returns netOut/amountIn for a computed quote.
func EffectivePrice(amountIn uint64, q Quote) decimal.Decimal {
	if amountIn == 0 {
		return decimal.Zero
	}
	return toDecimal(q.NetOut).DivRound(toDecimal(amountIn), PricePrecision)
}

// PriceImpact returns 1 - effective/spot, the fraction lost to curve and fee.
func PriceImpact(reserveIn, reserveOut, amountIn uint64, q Quote) decimal.Decimal {
	spot := SpotPrice(reserveIn, reserveOut)
	if spot.IsZero() {
		return decimal.Zero
	}
	eff := EffectivePrice(amountIn, q)
	return decimal.NewFromInt(1).Sub(eff.DivRound(spot, PricePrecision))
}

func toDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
