// Package storagetest holds the behaviour every storage.Store backend must
// share.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
)

const (
	MintA   = "0x00000000000000000000000000000000000000AA"
	MintB   = "0x00000000000000000000000000000000000000BB"
	Receipt = "0x00000000000000000000000000000000000000CC"
	Alice   = "0x0000000000000000000000000000000000000A11"
	VaultA  = "0x00000000000000000000000000000000000000F1"
	VaultB  = "0x00000000000000000000000000000000000000F2"
)

// AddLiquidity returns the change-set of a 500 unit deposit by Alice.
func AddLiquidity(seq uint64, staked uint64, ts int64) model.ChangeSet {
	return model.ChangeSet{
		Balances: []model.Balance{
			{Mint: MintA, Owner: Alice, Amount: 0},
			{Mint: MintA, Owner: VaultA, Amount: staked},
			{Mint: MintB, Owner: Alice, Amount: 0},
			{Mint: MintB, Owner: VaultB, Amount: staked},
			{Mint: Receipt, Owner: Alice, Amount: staked},
		},
		Supplies:  []model.Supply{{Mint: Receipt, Amount: staked}},
		Positions: []model.Position{{Owner: Alice, StakedAmount: staked, LastUpdateTime: ts}},
		Operation: model.Operation{
			ID:           fmt.Sprintf("op-%d", seq),
			Seq:          seq,
			Kind:         model.KindAddLiquidity,
			Owner:        Alice,
			Amount:       500,
			ReserveA:     staked,
			ReserveB:     staked,
			StakedAmount: staked,
			Timestamp:    ts,
			CommittedAt:  "2024-01-01T00:00:00Z",
		},
	}
}

// Run exercises a fresh store returned by open. reopen must return a new
// handle on the same underlying data after the previous one is closed.
func Run(t *testing.T, open func(t *testing.T) storage.Store, reopen func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	store := open(t)
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	open1 := model.ChangeSet{
		Positions: []model.Position{{Owner: Alice}},
		Operation: model.Operation{ID: "op-1", Seq: 1, Kind: model.KindOpenPosition, Owner: Alice, Timestamp: 100},
	}
	require.NoError(t, store.Commit(ctx, open1))
	require.NoError(t, store.Commit(ctx, AddLiquidity(2, 500, 110)))
	require.NoError(t, store.Commit(ctx, AddLiquidity(3, 1_000, 120)))

	err = store.Commit(ctx, AddLiquidity(5, 1_500, 130))
	require.ErrorIs(t, err, storage.ErrSeqGap)

	require.NoError(t, store.Close())
	store = reopen(t)
	defer store.Close()

	snap, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(3), snap.Seq)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, uint64(1_000), snap.Positions[0].StakedAmount)
	assert.Equal(t, int64(120), snap.Positions[0].LastUpdateTime)
	require.Len(t, snap.Supplies, 1)
	assert.Equal(t, uint64(1_000), snap.Supplies[0].Amount)
	assert.Len(t, snap.Balances, 5)

	var seqs []uint64
	require.NoError(t, store.Journal(ctx, 0, func(op model.Operation) error {
		seqs = append(seqs, op.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2, 3}, seqs)

	seqs = nil
	require.NoError(t, store.Journal(ctx, 2, func(op model.Operation) error {
		seqs = append(seqs, op.Seq)
		assert.Equal(t, model.KindAddLiquidity, op.Kind)
		return nil
	}))
	assert.Equal(t, []uint64{3}, seqs)

	require.NoError(t, store.Commit(ctx, AddLiquidity(4, 1_500, 130)))
}
