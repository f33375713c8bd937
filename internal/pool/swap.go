package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/amm"
	"stakeSwap/internal/model"
)

// QuoteResult is a read-only preview of a swap against committed reserves.
type QuoteResult struct {
	Direction  model.Direction
	AmountIn   uint64
	ReserveIn  uint64
	ReserveOut uint64
	amm.Quote
}

func (p *Pool) route(dir model.Direction) (Vault, Vault, error) {
	switch dir {
	case model.AToB:
		return p.vaultA, p.vaultB, nil
	case model.BToA:
		return p.vaultB, p.vaultA, nil
	default:
		return Vault{}, Vault{}, fmt.Errorf("invalid swap direction: %q", dir)
	}
}

func price(out Vault, reserveIn, reserveOut, amountIn, minAmountOut uint64) (amm.Quote, error) {
	q, err := amm.QuoteSwap(reserveIn, reserveOut, amountIn, minAmountOut)
	if errors.Is(err, amm.ErrReserveExceeded) {
		return amm.Quote{}, fmt.Errorf("%w: reserve %d", out.insufficient, reserveOut)
	}
	return q, err
}

// Swap sells amountIn of the input asset for at least minAmountOut of the
// other one. The price comes only from reserves read inside the operation.
func (p *Pool) Swap(ctx context.Context, owner common.Address, dir model.Direction, amountIn, minAmountOut uint64) (model.Operation, error) {
	op := model.Operation{
		Kind:         model.KindSwap,
		Owner:        owner.Hex(),
		Direction:    dir,
		Amount:       amountIn,
		MinAmountOut: minAmountOut,
	}
	return p.execute(ctx, owner, op, func(tx *txn, op *model.Operation) error {
		if amountIn == 0 {
			return ErrZeroAmount
		}
		in, out, err := p.route(dir)
		if err != nil {
			return err
		}

		q, err := price(out, in.Balance(tx.tokens), out.Balance(tx.tokens), amountIn, minAmountOut)
		if err != nil {
			return err
		}

		if err := in.deposit(tx.tokens, owner, amountIn); err != nil {
			return err
		}
		if err := out.withdraw(tx.tokens, p.auths, owner, q.NetOut); err != nil {
			return err
		}

		op.GrossOut = q.GrossOut
		op.Fee = q.Fee
		op.NetOut = q.NetOut
		if pos, ok := tx.positions.get(owner); ok {
			op.StakedAmount = pos.StakedAmount
		}
		return nil
	})
}

// Quote previews a swap without a slippage floor and without moving funds.
func (p *Pool) Quote(dir model.Direction, amountIn uint64) (QuoteResult, error) {
	if amountIn == 0 {
		return QuoteResult{}, ErrZeroAmount
	}
	in, out, err := p.route(dir)
	if err != nil {
		return QuoteResult{}, err
	}

	p.mu.Lock()
	reserveIn, reserveOut := in.Balance(p.ledger), out.Balance(p.ledger)
	p.mu.Unlock()

	q, err := price(out, reserveIn, reserveOut, amountIn, 0)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{
		Direction:  dir,
		AmountIn:   amountIn,
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		Quote:      q,
	}, nil
}
