package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Derivation seeds.
const (
	SeedVaultA        = "vaultTokenA"
	SeedVaultB        = "vaultTokenB"
	SeedPosition      = "userliquidityPDA"
	SeedMintAuthority = "authority"
)

// DeriveAddress computes a protocol-controlled address from the program id
// and seeds: the last 20 bytes of keccak256(program || seeds...). Nobody
// holds a key for it; only the pool presents it as an authorizer.
func DeriveAddress(program common.Address, seeds ...[]byte) common.Address {
	parts := make([][]byte, 0, len(seeds)+1)
	parts = append(parts, program.Bytes())
	parts = append(parts, seeds...)
	return common.BytesToAddress(crypto.Keccak256(parts...))
}

// Authority is a derived signer scoped to one asset.
type Authority struct {
	Asset   common.Address
	Address common.Address
}

// Authorities maps each vault asset to its custody authority plus the
// receipt mint authority. It is resolved once when the pool is built and
// passed explicitly to every vault outflow.
type Authorities struct {
	custody map[common.Address]Authority
	mint    Authority
}

func resolveAuthorities(cfg Config) Authorities {
	return Authorities{
		custody: map[common.Address]Authority{
			cfg.MintA: {Asset: cfg.MintA, Address: DeriveAddress(cfg.ProgramID, []byte(SeedVaultA), cfg.MintA.Bytes())},
			cfg.MintB: {Asset: cfg.MintB, Address: DeriveAddress(cfg.ProgramID, []byte(SeedVaultB), cfg.MintB.Bytes())},
		},
		mint: Authority{Asset: cfg.ReceiptMint, Address: DeriveAddress(cfg.ProgramID, []byte(SeedMintAuthority))},
	}
}

// Custody returns the authority that signs outflows for asset.
func (a Authorities) Custody(asset common.Address) (Authority, error) {
	auth, ok := a.custody[asset]
	if !ok {
		return Authority{}, fmt.Errorf("no custody authority for asset %s", asset.Hex())
	}
	return auth, nil
}

// Mint returns the receipt mint authority.
func (a Authorities) Mint() Authority {
	return a.mint
}

func positionAddress(program, owner common.Address) common.Address {
	return DeriveAddress(program, []byte(SeedPosition), owner.Bytes())
}
