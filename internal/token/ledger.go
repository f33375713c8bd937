// Package token simulates the external token ledger the pool settles
// against: token accounts keyed by (mint, owner), owner-authorized
// transfers and authority-gated minting.
package token

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/model"
)

// Account identifies a token account. Only Owner may authorize outflows.
type Account struct {
	Mint  common.Address
	Owner common.Address
}

func (a Account) String() string {
	return a.Mint.Hex() + "/" + a.Owner.Hex()
}

// state is the minimal read/write surface shared by Ledger and Sandbox so
// transfer and mint rules are written once.
type state interface {
	balance(acct Account) uint64
	setBalance(acct Account, amount uint64)
	supply(mint common.Address) uint64
	setSupply(mint common.Address, amount uint64)
	mintAuthority(mint common.Address) (common.Address, bool)
}

// Ledger is the committed token state.
type Ledger struct {
	mu          sync.RWMutex
	balances    map[Account]uint64
	supplies    map[common.Address]uint64
	authorities map[common.Address]common.Address
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:    make(map[Account]uint64),
		supplies:    make(map[common.Address]uint64),
		authorities: make(map[common.Address]common.Address),
	}
}

// RegisterMint records the authority allowed to mint new units of mint.
func (l *Ledger) RegisterMint(mint, authority common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.authorities[mint] = authority
}

// Balance returns the balance of acct, zero if it was never funded.
func (l *Ledger) Balance(acct Account) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[acct]
}

// Supply returns the total minted amount of mint.
func (l *Ledger) Supply(mint common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supplies[mint]
}

// Transfer moves amount between two accounts of the same mint.
func (l *Ledger) Transfer(from, to Account, authorizer common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return transfer(lockedLedger{l}, from, to, authorizer, amount)
}

// MintTo creates amount new units of mint in the destination account.
func (l *Ledger) MintTo(mint common.Address, to Account, authority common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return mintTo(lockedLedger{l}, mint, to, authority, amount)
}

// Load replaces balances and supplies with persisted values. Mint
// authorities are left untouched.
func (l *Ledger) Load(balances []model.Balance, supplies []model.Supply) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances = make(map[Account]uint64, len(balances))
	for _, b := range balances {
		acct, err := accountFromModel(b.Mint, b.Owner)
		if err != nil {
			return err
		}
		l.balances[acct] = b.Amount
	}
	l.supplies = make(map[common.Address]uint64, len(supplies))
	for _, s := range supplies {
		if !common.IsHexAddress(s.Mint) {
			return fmt.Errorf("invalid mint address: %s", s.Mint)
		}
		l.supplies[common.HexToAddress(s.Mint)] = s.Amount
	}
	return nil
}

// Balances returns every funded account sorted by mint then owner.
func (l *Ledger) Balances() []model.Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Balance, 0, len(l.balances))
	for acct, amount := range l.balances {
		out = append(out, balanceRecord(acct, amount))
	}
	sortBalances(out)
	return out
}

// Supplies returns the supply of every mint that has one.
func (l *Ledger) Supplies() []model.Supply {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Supply, 0, len(l.supplies))
	for mint, amount := range l.supplies {
		out = append(out, model.Supply{Mint: mint.Hex(), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mint < out[j].Mint })
	return out
}

// lockedLedger adapts a Ledger whose lock is already held.
type lockedLedger struct{ l *Ledger }

func (s lockedLedger) balance(acct Account) uint64 { return s.l.balances[acct] }

func (s lockedLedger) setBalance(acct Account, amount uint64) { s.l.balances[acct] = amount }

func (s lockedLedger) supply(mint common.Address) uint64 { return s.l.supplies[mint] }

func (s lockedLedger) setSupply(mint common.Address, amount uint64) { s.l.supplies[mint] = amount }

func (s lockedLedger) mintAuthority(mint common.Address) (common.Address, bool) {
	auth, ok := s.l.authorities[mint]
	return auth, ok
}

func transfer(s state, from, to Account, authorizer common.Address, amount uint64) error {
	if from.Mint != to.Mint {
		return fmt.Errorf("transfer %s -> %s: %w", from, to, ErrMintMismatch)
	}
	if authorizer != from.Owner {
		return fmt.Errorf("transfer from %s signed by %s: %w", from, authorizer.Hex(), ErrUnauthorized)
	}

	fromBal := s.balance(from)
	if fromBal < amount {
		return fmt.Errorf("transfer %d from %s (balance %d): %w", amount, from, fromBal, ErrInsufficientFunds)
	}
	if from == to {
		return nil
	}

	toBal := s.balance(to)
	if toBal > ^uint64(0)-amount {
		return fmt.Errorf("transfer %d to %s: %w", amount, to, ErrOverflow)
	}

	s.setBalance(from, fromBal-amount)
	s.setBalance(to, toBal+amount)
	return nil
}

func mintTo(s state, mint common.Address, to Account, authority common.Address, amount uint64) error {
	expected, ok := s.mintAuthority(mint)
	if !ok {
		return fmt.Errorf("mint %s: %w", mint.Hex(), ErrUnknownMint)
	}
	if authority != expected {
		return fmt.Errorf("mint %s signed by %s: %w", mint.Hex(), authority.Hex(), ErrUnauthorized)
	}
	if to.Mint != mint {
		return fmt.Errorf("mint %s into %s: %w", mint.Hex(), to, ErrMintMismatch)
	}

	supply := s.supply(mint)
	toBal := s.balance(to)
	if supply > ^uint64(0)-amount || toBal > ^uint64(0)-amount {
		return fmt.Errorf("mint %d of %s: %w", amount, mint.Hex(), ErrOverflow)
	}

	s.setSupply(mint, supply+amount)
	s.setBalance(to, toBal+amount)
	return nil
}

func accountFromModel(mint, owner string) (Account, error) {
	if !common.IsHexAddress(mint) {
		return Account{}, fmt.Errorf("invalid mint address: %s", mint)
	}
	if !common.IsHexAddress(owner) {
		return Account{}, fmt.Errorf("invalid owner address: %s", owner)
	}
	return Account{Mint: common.HexToAddress(mint), Owner: common.HexToAddress(owner)}, nil
}

func balanceRecord(acct Account, amount uint64) model.Balance {
	return model.Balance{Mint: acct.Mint.Hex(), Owner: acct.Owner.Hex(), Amount: amount}
}

func sortBalances(items []model.Balance) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Mint != items[j].Mint {
			return items[i].Mint < items[j].Mint
		}
		return items[i].Owner < items[j].Owner
	})
}
