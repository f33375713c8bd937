package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/token"
)

// Receipt issues the 1:1 liquidity receipt token. Receipts are minted on
// deposit and never burned on withdrawal, so supply is not a live claim on
// pool assets.
type Receipt struct {
	Mint common.Address
}

func (r Receipt) issue(l TokenLedger, auths Authorities, to common.Address, amount uint64) error {
	dest := token.Account{Mint: r.Mint, Owner: to}
	if err := l.MintTo(r.Mint, dest, auths.Mint().Address, amount); err != nil {
		return fmt.Errorf("mint receipt: %w", err)
	}
	return nil
}
