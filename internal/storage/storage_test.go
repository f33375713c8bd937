package storage_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
	"stakeSwap/internal/storage/storagetest"
)

func TestMerge(t *testing.T) {
	var snap model.Snapshot
	storage.Merge(&snap, storagetest.AddLiquidity(1, 500, 10))
	storage.Merge(&snap, model.ChangeSet{
		Balances:  []model.Balance{{Mint: storagetest.MintA, Owner: storagetest.Alice, Amount: 42}},
		Operation: model.Operation{Seq: 2, CommittedAt: "later"},
	})

	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, "later", snap.UpdatedAt)
	assert.Len(t, snap.Balances, 5)
	for _, b := range snap.Balances {
		if b.Mint == storagetest.MintA && b.Owner == storagetest.Alice {
			assert.Equal(t, uint64(42), b.Amount)
		}
	}
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, uint64(500), snap.Positions[0].StakedAmount)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	open := func(t *testing.T) storage.Store {
		s, err := storage.NewFileStore(dir)
		require.NoError(t, err)
		return s
	}
	storagetest.Run(t, open, open)
}

func TestFileStoreIgnoresUnfinishedJournalLine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, storagetest.AddLiquidity(1, 500, 10)))

	// a journal line whose snapshot write never happened
	orphan, err := json.Marshal(model.Operation{Seq: 2, Kind: model.KindSwap})
	require.NoError(t, err)
	f, err := os.OpenFile(filepath.Join(dir, "journal.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(append(orphan, '\n'))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = storage.NewFileStore(dir)
	require.NoError(t, err)

	var kinds []model.OperationKind
	require.NoError(t, s.Journal(ctx, 0, func(op model.Operation) error {
		kinds = append(kinds, op.Kind)
		return nil
	}))
	assert.Equal(t, []model.OperationKind{model.KindAddLiquidity}, kinds)

	// the retried seq 2 wins over the orphan
	require.NoError(t, s.Commit(ctx, storagetest.AddLiquidity(2, 1_000, 20)))
	kinds = nil
	require.NoError(t, s.Journal(ctx, 1, func(op model.Operation) error {
		kinds = append(kinds, op.Kind)
		return nil
	}))
	assert.Equal(t, []model.OperationKind{model.KindAddLiquidity}, kinds)
}

func TestJsonlStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "metrics.jsonl")
	sink := storage.NewJsonlStorage(path)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := []model.WindowMetrics{
		{WindowSizeSecs: 3600, WindowStart: start, WindowEnd: start.Add(time.Hour), SwapCount: 2, VolumeA: "100"},
		{WindowSizeSecs: 3600, WindowStart: start.Add(time.Hour), WindowEnd: start.Add(2 * time.Hour)},
	}
	require.NoError(t, sink.PutWindowMetrics(context.Background(), metrics))
	require.NoError(t, sink.PutWindowMetrics(context.Background(), nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m model.WindowMetrics
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, lines)
}
