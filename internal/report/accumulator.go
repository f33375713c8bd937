package report

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"stakeSwap/internal/model"
)

// Accumulator holds aggregate values for one window.
type Accumulator struct {
	WindowStart      int64
	WindowEnd        int64
	SwapCount        uint64
	VolumeA          decimal.Decimal
	VolumeB          decimal.Decimal
	FeeA             decimal.Decimal
	FeeB             decimal.Decimal
	LiquidityAdded   decimal.Decimal
	LiquidityRemoved decimal.Decimal
	ReserveA         uint64
	ReserveB         uint64
	FirstSeq         uint64
	LastSeq          uint64
}

func NewAccumulator(windowStart, windowEnd int64) *Accumulator {
	return &Accumulator{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
}

// AddOperation folds one committed operation into the window.
func (a *Accumulator) AddOperation(op model.Operation) error {
	if a.FirstSeq == 0 || op.Seq < a.FirstSeq {
		a.FirstSeq = op.Seq
	}

	switch op.Kind {
	case model.KindSwap:
		if err := a.applySwap(op); err != nil {
			return err
		}
	case model.KindAddLiquidity:
		a.LiquidityAdded = a.LiquidityAdded.Add(amount(op.Amount))
	case model.KindRemoveLiquidity:
		a.LiquidityRemoved = a.LiquidityRemoved.Add(amount(op.Amount))
	case model.KindOpenPosition, model.KindFund:
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}

	if op.Seq >= a.LastSeq {
		a.LastSeq = op.Seq
		a.ReserveA = op.ReserveA
		a.ReserveB = op.ReserveB
	}
	return nil
}

// applySwap counts input volume on the sold asset and the fee on the
// bought one.
func (a *Accumulator) applySwap(op model.Operation) error {
	switch op.Direction {
	case model.AToB:
		a.VolumeA = a.VolumeA.Add(amount(op.Amount))
		a.FeeB = a.FeeB.Add(amount(op.Fee))
	case model.BToA:
		a.VolumeB = a.VolumeB.Add(amount(op.Amount))
		a.FeeA = a.FeeA.Add(amount(op.Fee))
	default:
		return fmt.Errorf("swap %d has invalid direction %q", op.Seq, op.Direction)
	}
	a.SwapCount++
	return nil
}

func amount(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
