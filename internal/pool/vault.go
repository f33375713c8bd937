package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/token"
)

// TokenLedger is the external transfer primitive the pool settles against.
type TokenLedger interface {
	Balance(acct token.Account) uint64
	Transfer(from, to token.Account, authorizer common.Address, amount uint64) error
	MintTo(mint common.Address, to token.Account, authority common.Address, amount uint64) error
}

// Vault is one single-asset custodial balance. The balance itself lives in
// the token ledger under Account, whose owner is the derived custody
// authority.
type Vault struct {
	Name    string
	Asset   common.Address
	Account token.Account

	insufficient error
}

func newVault(name string, asset common.Address, auths Authorities, insufficient error) (Vault, error) {
	auth, err := auths.Custody(asset)
	if err != nil {
		return Vault{}, err
	}
	return Vault{
		Name:         name,
		Asset:        asset,
		Account:      token.Account{Mint: asset, Owner: auth.Address},
		insufficient: insufficient,
	}, nil
}

// Balance is the vault's current reserve.
func (v Vault) Balance(l TokenLedger) uint64 {
	return l.Balance(v.Account)
}

// deposit moves amount from the depositor's account into the vault,
// authorized by the depositor.
func (v Vault) deposit(l TokenLedger, depositor common.Address, amount uint64) error {
	from := token.Account{Mint: v.Asset, Owner: depositor}
	if err := l.Transfer(from, v.Account, depositor, amount); err != nil {
		return fmt.Errorf("deposit token %s: %w", v.Name, err)
	}
	return nil
}

// withdraw moves amount out of the vault to recipient, authorized by the
// vault's custody authority taken from auths.
func (v Vault) withdraw(l TokenLedger, auths Authorities, recipient common.Address, amount uint64) error {
	auth, err := auths.Custody(v.Asset)
	if err != nil {
		return fmt.Errorf("withdraw token %s: %w", v.Name, err)
	}
	to := token.Account{Mint: v.Asset, Owner: recipient}
	if err := l.Transfer(v.Account, to, auth.Address, amount); err != nil {
		return fmt.Errorf("withdraw token %s: %w", v.Name, err)
	}
	return nil
}
