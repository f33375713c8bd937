package token

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/model"
)

// Sandbox buffers balance and supply writes over a Ledger. Nothing reaches
// the ledger until Apply; dropping the sandbox discards every write.
type Sandbox struct {
	base     *Ledger
	balances map[Account]uint64
	supplies map[common.Address]uint64
}

func NewSandbox(base *Ledger) *Sandbox {
	return &Sandbox{
		base:     base,
		balances: make(map[Account]uint64),
		supplies: make(map[common.Address]uint64),
	}
}

func (s *Sandbox) Balance(acct Account) uint64 {
	return s.balance(acct)
}

func (s *Sandbox) Supply(mint common.Address) uint64 {
	return s.supply(mint)
}

func (s *Sandbox) Transfer(from, to Account, authorizer common.Address, amount uint64) error {
	return transfer(s, from, to, authorizer, amount)
}

func (s *Sandbox) MintTo(mint common.Address, to Account, authority common.Address, amount uint64) error {
	return mintTo(s, mint, to, authority, amount)
}

// Changes returns the final value of every balance and supply written in
// the sandbox.
func (s *Sandbox) Changes() ([]model.Balance, []model.Supply) {
	balances := make([]model.Balance, 0, len(s.balances))
	for acct, amount := range s.balances {
		balances = append(balances, balanceRecord(acct, amount))
	}
	sortBalances(balances)

	supplies := make([]model.Supply, 0, len(s.supplies))
	for mint, amount := range s.supplies {
		supplies = append(supplies, model.Supply{Mint: mint.Hex(), Amount: amount})
	}
	sort.Slice(supplies, func(i, j int) bool { return supplies[i].Mint < supplies[j].Mint })
	return balances, supplies
}

// Apply writes buffered changes into the base ledger.
func (s *Sandbox) Apply() {
	s.base.mu.Lock()
	defer s.base.mu.Unlock()

	for acct, amount := range s.balances {
		s.base.balances[acct] = amount
	}
	for mint, amount := range s.supplies {
		s.base.supplies[mint] = amount
	}
	s.balances = make(map[Account]uint64)
	s.supplies = make(map[common.Address]uint64)
}

func (s *Sandbox) balance(acct Account) uint64 {
	if v, ok := s.balances[acct]; ok {
		return v
	}
	return s.base.Balance(acct)
}

func (s *Sandbox) setBalance(acct Account, amount uint64) { s.balances[acct] = amount }

func (s *Sandbox) supply(mint common.Address) uint64 {
	if v, ok := s.supplies[mint]; ok {
		return v
	}
	return s.base.Supply(mint)
}

func (s *Sandbox) setSupply(mint common.Address, amount uint64) { s.supplies[mint] = amount }

func (s *Sandbox) mintAuthority(mint common.Address) (common.Address, bool) {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	auth, ok := s.base.authorities[mint]
	return auth, ok
}
