package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/pool"
)

// Pool resolves the configured addresses into a pool.Config.
func (c Config) Pool() (pool.Config, error) {
	programID, err := ParseAddress("program-id", c.ProgramID)
	if err != nil {
		return pool.Config{}, err
	}
	mintA, err := ParseAddress("mint-a", c.MintA)
	if err != nil {
		return pool.Config{}, err
	}
	mintB, err := ParseAddress("mint-b", c.MintB)
	if err != nil {
		return pool.Config{}, err
	}
	receipt, err := ParseAddress("receipt-mint", c.ReceiptMint)
	if err != nil {
		return pool.Config{}, err
	}
	return pool.Config{ProgramID: programID, MintA: mintA, MintB: mintB, ReceiptMint: receipt}, nil
}

// IssuerAddress is the mint authority of the two pool assets on the
// simulated external ledger.
func (c Config) IssuerAddress() (common.Address, error) {
	return ParseAddress("issuer", c.Issuer)
}

// ParseAddress converts a hex string into common.Address. name is used in
// the error message.
func ParseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, input)
	}
	return common.HexToAddress(input), nil
}
