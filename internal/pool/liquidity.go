package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/model"
)

// OpenPosition creates an empty staking record for owner.
func (p *Pool) OpenPosition(ctx context.Context, owner common.Address) (model.Operation, error) {
	op := model.Operation{Kind: model.KindOpenPosition, Owner: owner.Hex()}
	return p.execute(ctx, owner, op, func(tx *txn, op *model.Operation) error {
		if _, ok := tx.positions.get(owner); ok {
			return fmt.Errorf("%w: %s", ErrPositionExists, owner.Hex())
		}
		tx.positions.put(owner, model.Position{
			Owner:   owner.Hex(),
			Address: positionAddress(p.cfg.ProgramID, owner).Hex(),
		})
		return nil
	})
}

// AddLiquidity deposits amount of both assets, mints amount receipts and
// stakes amount. The deposit is not scaled to the reserve ratio. Every
// deposit restarts the lock for the whole position.
func (p *Pool) AddLiquidity(ctx context.Context, owner common.Address, amount uint64) (model.Operation, error) {
	op := model.Operation{Kind: model.KindAddLiquidity, Owner: owner.Hex(), Amount: amount}
	return p.execute(ctx, owner, op, func(tx *txn, op *model.Operation) error {
		if amount == 0 {
			return ErrZeroAmount
		}
		pos, ok := tx.positions.get(owner)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPositionNotFound, owner.Hex())
		}

		if err := p.vaultA.deposit(tx.tokens, owner, amount); err != nil {
			return err
		}
		if err := p.vaultB.deposit(tx.tokens, owner, amount); err != nil {
			return err
		}
		if err := p.receipt.issue(tx.tokens, p.auths, owner, amount); err != nil {
			return err
		}

		if pos.StakedAmount > ^uint64(0)-amount {
			return fmt.Errorf("staked amount overflow: %w", ErrCalculation)
		}
		pos.StakedAmount += amount
		pos.LastUpdateTime = tx.now
		tx.positions.put(owner, pos)

		op.StakedAmount = pos.StakedAmount
		return nil
	})
}

// RemoveLiquidity returns amount of both assets once the lock has expired.
// Receipts are not burned.
func (p *Pool) RemoveLiquidity(ctx context.Context, owner common.Address, amount uint64) (model.Operation, error) {
	op := model.Operation{Kind: model.KindRemoveLiquidity, Owner: owner.Hex(), Amount: amount}
	return p.execute(ctx, owner, op, func(tx *txn, op *model.Operation) error {
		if amount == 0 {
			return ErrZeroAmount
		}
		pos, ok := tx.positions.get(owner)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPositionNotFound, owner.Hex())
		}

		if !lockExpired(pos.LastUpdateTime, tx.now) {
			return fmt.Errorf("%w: %d seconds remaining", ErrTimeConstraint, lockRemaining(pos.LastUpdateTime, tx.now))
		}
		if pos.StakedAmount < amount {
			return fmt.Errorf("%w: staked %d, requested %d", ErrInsufficientLiquidityTokens, pos.StakedAmount, amount)
		}

		if err := p.vaultA.withdraw(tx.tokens, p.auths, owner, amount); err != nil {
			return err
		}
		if err := p.vaultB.withdraw(tx.tokens, p.auths, owner, amount); err != nil {
			return err
		}

		pos.StakedAmount -= amount
		tx.positions.put(owner, pos)

		op.StakedAmount = pos.StakedAmount
		return nil
	})
}
