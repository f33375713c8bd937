package report

import (
	"github.com/shopspring/decimal"
)

const ratioScale = 18

// feeRate is fee divided by the reserve it was paid from, nil when either
// side is zero.
func feeRate(fee decimal.Decimal, reserve uint64) *string {
	if fee.IsZero() || reserve == 0 {
		return nil
	}
	rate := fee.DivRound(amount(reserve), ratioScale).String()
	return &rate
}

func windowStart(ts int64, windowSec int64) int64 {
	return ts - (ts % windowSec)
}
