package postgres

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
	"stakeSwap/internal/storage/storagetest"
)

func testDSN(t *testing.T) string {
	dsn := os.Getenv("STAKESWAP_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STAKESWAP_TEST_PG_DSN not set")
	}
	return dsn
}

func openStore(t *testing.T, dsn, name string) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), dsn, name)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore(t *testing.T) {
	dsn := testDSN(t)
	name := "test-" + uuid.NewString()

	open := func(t *testing.T) storage.Store { return openStore(t, dsn, name) }
	storagetest.Run(t, open, open)
}

func TestStoresArePoolScoped(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	first := openStore(t, dsn, "test-"+uuid.NewString())
	defer first.Close()
	second := openStore(t, dsn, "test-"+uuid.NewString())
	defer second.Close()

	require.NoError(t, first.Commit(ctx, storagetest.AddLiquidity(1, 100, 1_700_000_000)))
	require.NoError(t, second.Commit(ctx, storagetest.AddLiquidity(1, 40, 1_700_000_050)))

	snap, ok, err := first.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, uint64(100), snap.Positions[0].StakedAmount)

	var seen []int64
	require.NoError(t, second.Journal(ctx, 0, func(op model.Operation) error {
		seen = append(seen, op.Timestamp)
		return nil
	}))
	assert.Equal(t, []int64{1_700_000_050}, seen)
}

func TestWindowMetricsAndState(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()
	s := openStore(t, dsn, "test-"+uuid.NewString())
	defer s.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := model.WindowMetrics{
		WindowSizeSecs: 3600, WindowStart: start, WindowEnd: start.Add(time.Hour),
		SwapCount: 1, VolumeA: "100", VolumeB: "0", FeeA: "0", FeeB: "2",
		LiquidityAdded: "0", LiquidityRemoved: "0", ReserveA: "1100", ReserveB: "911", LastSeq: 1,
	}
	require.NoError(t, s.PutWindowMetrics(ctx, []model.WindowMetrics{m}))
	m.SwapCount = 2
	require.NoError(t, s.PutWindowMetrics(ctx, []model.WindowMetrics{m}))

	stateName := "report-" + uuid.NewString()
	_, _, ok, err := s.LoadState(ctx, stateName)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveState(ctx, stateName, uint64(start.Unix()), 9))
	ts, seq, ok, err := s.LoadState(ctx, stateName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(start.Unix()), ts)
	assert.Equal(t, uint64(9), seq)
}

func TestAmountFormatting(t *testing.T) {
	v, err := parseAmount(formatAmount(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = parseAmount("-1")
	require.Error(t, err)
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "", "pool")
	require.Error(t, err)
}
