package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/model"
	"stakeSwap/internal/token"
)

// Fund mints amount of asset to owner on the external ledger, signed by
// issuer. Pool authorities cannot be funded this way; the only path into a
// vault is a deposit.
func (p *Pool) Fund(ctx context.Context, issuer, owner, asset common.Address, amount uint64) (model.Operation, error) {
	op := model.Operation{Kind: model.KindFund, Owner: owner.Hex(), Amount: amount}
	return p.execute(ctx, owner, op, func(tx *txn, op *model.Operation) error {
		if amount == 0 {
			return ErrZeroAmount
		}
		dest := token.Account{Mint: asset, Owner: owner}
		if err := tx.tokens.MintTo(asset, dest, issuer, amount); err != nil {
			return fmt.Errorf("fund %s: %w", owner.Hex(), err)
		}
		if pos, ok := tx.positions.get(owner); ok {
			op.StakedAmount = pos.StakedAmount
		}
		return nil
	})
}
