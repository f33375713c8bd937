// Package pool runs the two-asset liquidity pool: vault custody, the
// liquidity position ledger, receipt issuance and swaps.
//
// Every public operation runs under the pool lock against a sandbox of the
// token ledger and the position book. On success the change-set is written
// to the store and then applied in memory; on any error the sandbox is
// dropped, so an operation never leaves partial effects behind.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stakeSwap/internal/model"
	"stakeSwap/internal/token"
)

// Clock supplies the current unix time in seconds.
type Clock interface {
	Now(ctx context.Context) (int64, error)
}

// Store persists committed change-sets. A failed Commit aborts the
// operation.
type Store interface {
	Commit(ctx context.Context, cs model.ChangeSet) error
}

// Config identifies the pool: the program id used for address derivation
// and the three mints it touches.
type Config struct {
	ProgramID   common.Address
	MintA       common.Address
	MintB       common.Address
	ReceiptMint common.Address
}

func (c Config) validate() error {
	zero := common.Address{}
	if c.MintA == zero || c.MintB == zero || c.ReceiptMint == zero {
		return fmt.Errorf("mint a, mint b and receipt mint are required")
	}
	if c.MintA == c.MintB || c.MintA == c.ReceiptMint || c.MintB == c.ReceiptMint {
		return fmt.Errorf("pool mints must be distinct")
	}
	return nil
}

// Pool is one asset-pair pool bound to a token ledger.
type Pool struct {
	cfg     Config
	auths   Authorities
	vaultA  Vault
	vaultB  Vault
	receipt Receipt

	mu        sync.Mutex
	ledger    *token.Ledger
	positions positionBook
	seq       uint64

	clock  Clock
	store  Store
	logger *zap.Logger
}

// New builds a pool. store may be nil for an in-memory pool.
func New(cfg Config, ledger *token.Ledger, clock Clock, store Store, logger *zap.Logger) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("token ledger is nil")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	auths := resolveAuthorities(cfg)
	vaultA, err := newVault("A", cfg.MintA, auths, ErrInsufficientTokenA)
	if err != nil {
		return nil, err
	}
	vaultB, err := newVault("B", cfg.MintB, auths, ErrInsufficientTokenB)
	if err != nil {
		return nil, err
	}

	return &Pool{
		cfg:       cfg,
		auths:     auths,
		vaultA:    vaultA,
		vaultB:    vaultB,
		receipt:   Receipt{Mint: cfg.ReceiptMint},
		ledger:    ledger,
		positions: make(positionBook),
		clock:     clock,
		store:     store,
		logger:    logger,
	}, nil
}

// Restore loads persisted positions and the journal sequence. Token
// balances are restored separately on the ledger.
func (p *Pool) Restore(positions []model.Position, seq uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	book := make(positionBook, len(positions))
	for _, pos := range positions {
		if !common.IsHexAddress(pos.Owner) {
			return fmt.Errorf("invalid position owner: %s", pos.Owner)
		}
		book[common.HexToAddress(pos.Owner)] = pos
	}
	p.positions = book
	p.seq = seq
	return nil
}

// ReceiptAuthority is the derived address allowed to mint receipts. Mint
// registration itself happens outside the pool.
func (p *Pool) ReceiptAuthority() common.Address {
	return p.auths.Mint().Address
}

// Vaults returns both vaults, A first.
func (p *Pool) Vaults() (Vault, Vault) {
	return p.vaultA, p.vaultB
}

// Reserves returns the committed vault balances.
func (p *Pool) Reserves() (uint64, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vaultA.Balance(p.ledger), p.vaultB.Balance(p.ledger)
}

// Position returns the committed position of owner.
func (p *Pool) Position(owner common.Address) (model.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[owner]
	return pos, ok
}

// Seq returns the sequence number of the last committed operation.
func (p *Pool) Seq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// txn is the per-operation view handed to operation bodies.
type txn struct {
	tokens    *token.Sandbox
	positions *positionOverlay
	now       int64
}

// protocolOwned reports whether addr is one of the pool's derived
// authorities. Those accounts move only under the pool's own signature.
func (p *Pool) protocolOwned(addr common.Address) bool {
	return addr == p.vaultA.Account.Owner ||
		addr == p.vaultB.Account.Owner ||
		addr == p.auths.Mint().Address
}

func (p *Pool) execute(ctx context.Context, caller common.Address, op model.Operation, body func(tx *txn, op *model.Operation) error) (model.Operation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.protocolOwned(caller) {
		err := fmt.Errorf("%s %s: %w", op.Kind, caller.Hex(), token.ErrUnauthorized)
		p.logger.Warn("operation rejected", zap.String("kind", string(op.Kind)), zap.String("owner", op.Owner), zap.Error(err))
		return model.Operation{}, err
	}

	now, err := p.clock.Now(ctx)
	if err != nil {
		return model.Operation{}, fmt.Errorf("read clock: %w", err)
	}

	tx := &txn{
		tokens:    token.NewSandbox(p.ledger),
		positions: newPositionOverlay(p.positions),
		now:       now,
	}
	if err := body(tx, &op); err != nil {
		p.logger.Warn("operation rejected",
			zap.String("kind", string(op.Kind)),
			zap.String("owner", op.Owner),
			zap.Uint64("amount", op.Amount),
			zap.Error(err),
		)
		return model.Operation{}, err
	}

	op.ID = uuid.NewString()
	op.Seq = p.seq + 1
	op.Timestamp = now
	op.ReserveA = p.vaultA.Balance(tx.tokens)
	op.ReserveB = p.vaultB.Balance(tx.tokens)
	op.CommittedAt = time.Now().UTC().Format(time.RFC3339Nano)

	balances, supplies := tx.tokens.Changes()
	cs := model.ChangeSet{
		Balances:  balances,
		Supplies:  supplies,
		Positions: tx.positions.changes(),
		Operation: op,
	}
	if p.store != nil {
		if err := p.store.Commit(ctx, cs); err != nil {
			p.logger.Error("commit failed", zap.String("kind", string(op.Kind)), zap.Uint64("seq", op.Seq), zap.Error(err))
			return model.Operation{}, fmt.Errorf("commit %s: %w", op.Kind, err)
		}
	}

	tx.tokens.Apply()
	tx.positions.apply()
	p.seq = op.Seq

	p.logger.Info("operation committed",
		zap.String("kind", string(op.Kind)),
		zap.Uint64("seq", op.Seq),
		zap.String("owner", op.Owner),
		zap.Uint64("amount", op.Amount),
		zap.Uint64("reserve_a", op.ReserveA),
		zap.Uint64("reserve_b", op.ReserveB),
	)
	return op, nil
}
