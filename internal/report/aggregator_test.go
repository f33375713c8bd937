package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeSwap/internal/model"
)

type sliceJournal []model.Operation

func (j sliceJournal) Journal(_ context.Context, afterSeq uint64, fn func(model.Operation) error) error {
	for _, op := range j {
		if op.Seq <= afterSeq {
			continue
		}
		if err := fn(op); err != nil {
			return err
		}
	}
	return nil
}

type memorySink struct {
	batches [][]model.WindowMetrics
}

func (s *memorySink) PutWindowMetrics(_ context.Context, metrics []model.WindowMetrics) error {
	s.batches = append(s.batches, append([]model.WindowMetrics(nil), metrics...))
	return nil
}

func (s *memorySink) all() []model.WindowMetrics {
	var out []model.WindowMetrics
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

const hour = int64(3600)

func journal() sliceJournal {
	base := 10 * hour
	return sliceJournal{
		{Seq: 1, Kind: model.KindOpenPosition, Timestamp: base + 1},
		{Seq: 2, Kind: model.KindSwap, Direction: model.AToB, Amount: 100, GrossOut: 91, Fee: 2, NetOut: 89, ReserveA: 1_100, ReserveB: 911, Timestamp: base + 5},
		{Seq: 3, Kind: model.KindAddLiquidity, Amount: 500, ReserveA: 1_600, ReserveB: 1_411, Timestamp: base + 10},
		{Seq: 4, Kind: model.KindSwap, Direction: model.BToA, Amount: 50, Fee: 1, NetOut: 49, ReserveA: 1_551, ReserveB: 1_461, Timestamp: base + hour + 1},
		{Seq: 5, Kind: model.KindRemoveLiquidity, Amount: 20, ReserveA: 1_531, ReserveB: 1_441, Timestamp: base + hour + 200},
	}
}

func TestAggregatorWindows(t *testing.T) {
	sink := &memorySink{}
	agg := NewAggregator(Config{WindowSeconds: hour}, journal(), sink, nil)
	require.NoError(t, agg.Run(context.Background()))

	metrics := sink.all()
	require.Len(t, metrics, 2)

	first := metrics[0]
	assert.Equal(t, 10*hour, first.WindowStart.Unix())
	assert.Equal(t, 11*hour, first.WindowEnd.Unix())
	assert.Equal(t, uint64(1), first.SwapCount)
	assert.Equal(t, "100", first.VolumeA)
	assert.Equal(t, "0", first.VolumeB)
	assert.Equal(t, "0", first.FeeA)
	assert.Equal(t, "2", first.FeeB)
	assert.Equal(t, "500", first.LiquidityAdded)
	assert.Equal(t, "1600", first.ReserveA)
	assert.Equal(t, "1411", first.ReserveB)
	assert.Nil(t, first.FeeRateA)
	require.NotNil(t, first.FeeRateB)
	assert.Equal(t, uint64(3), first.LastSeq)

	second := metrics[1]
	assert.Equal(t, "50", second.VolumeB)
	assert.Equal(t, "1", second.FeeA)
	assert.Equal(t, "20", second.LiquidityRemoved)
	assert.Equal(t, uint64(5), second.LastSeq)
}

func TestAggregatorResumesAtOpenWindow(t *testing.T) {
	ctx := context.Background()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "report_state.json")}

	sink := &memorySink{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: hour, StateStore: state}, journal(), sink, nil).Run(ctx))

	cp, ok, err := state.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 11*hour-1, cp.LastProcessedTS)
	assert.Equal(t, uint64(3), cp.LastSeq)

	ops := append(journal(), model.Operation{
		Seq: 6, Kind: model.KindSwap, Direction: model.AToB, Amount: 10, Fee: 0, ReserveA: 1_541, ReserveB: 1_432, Timestamp: 11*hour + 300,
	})
	sink = &memorySink{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: hour, StateStore: state}, ops, sink, nil).Run(ctx))

	metrics := sink.all()
	require.Len(t, metrics, 1)
	assert.Equal(t, 11*hour, metrics[0].WindowStart.Unix())
	assert.Equal(t, uint64(2), metrics[0].SwapCount)
	assert.Equal(t, "10", metrics[0].VolumeA)
	assert.Equal(t, uint64(6), metrics[0].LastSeq)
}

func TestAggregatorRecomputeFrom(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	require.NoError(t, state.Save(context.Background(), Checkpoint{LastProcessedTS: 20 * hour, LastSeq: 5}))

	sink := &memorySink{}
	cfg := Config{WindowSeconds: hour, StateStore: state, RecomputeFrom: 10 * hour, BatchSize: 1}
	require.NoError(t, NewAggregator(cfg, journal(), sink, nil).Run(context.Background()))

	assert.Len(t, sink.batches, 2)
}

func TestAggregatorRejectsBadConfig(t *testing.T) {
	err := NewAggregator(Config{}, journal(), &memorySink{}, nil).Run(context.Background())
	require.Error(t, err)

	err = NewAggregator(Config{WindowSeconds: hour}, nil, &memorySink{}, nil).Run(context.Background())
	require.Error(t, err)
}

func TestAccumulatorRejectsBadDirection(t *testing.T) {
	acc := NewAccumulator(0, hour)
	err := acc.AddOperation(model.Operation{Seq: 1, Kind: model.KindSwap, Direction: "up"})
	require.Error(t, err)
	assert.Equal(t, uint64(0), acc.SwapCount)
}

func TestFeeRate(t *testing.T) {
	rate := feeRate(decimal.NewFromInt(2), 1_000)
	require.NotNil(t, rate)
	assert.Equal(t, "0.002", *rate)

	assert.Nil(t, feeRate(decimal.Zero, 1_000))
	assert.Nil(t, feeRate(decimal.NewFromInt(2), 0))
}

type namedState map[string][2]uint64

func (n namedState) LoadState(_ context.Context, name string) (uint64, uint64, bool, error) {
	v, ok := n[name]
	return v[0], v[1], ok, nil
}

func (n namedState) SaveState(_ context.Context, name string, ts, seq uint64) error {
	n[name] = [2]uint64{ts, seq}
	return nil
}

func TestDBStateStore(t *testing.T) {
	ctx := context.Background()
	store := &DBStateStore{Store: namedState{}, Name: "report"}

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, Checkpoint{LastProcessedTS: 42, LastSeq: 7}))
	cp, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Checkpoint{LastProcessedTS: 42, LastSeq: 7}, cp)
}

type recordingJournal struct {
	sliceJournal
	after []uint64
	read  int
}

func (j *recordingJournal) Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error {
	j.after = append(j.after, afterSeq)
	return j.sliceJournal.Journal(ctx, afterSeq, func(op model.Operation) error {
		j.read++
		return fn(op)
	})
}

func TestAggregatorReadsJournalAfterCheckpoint(t *testing.T) {
	ctx := context.Background()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "report_state.json")}
	cfg := Config{WindowSeconds: hour, StateStore: state}

	j := &recordingJournal{sliceJournal: journal()}
	require.NoError(t, NewAggregator(cfg, j, &memorySink{}, nil).Run(ctx))
	assert.Equal(t, []uint64{0}, j.after)
	assert.Equal(t, 5, j.read)

	// The second run rereads only the open window, seqs 4 and 5.
	j.after, j.read = nil, 0
	sink := &memorySink{}
	require.NoError(t, NewAggregator(cfg, j, sink, nil).Run(ctx))
	assert.Equal(t, []uint64{3}, j.after)
	assert.Equal(t, 2, j.read)

	metrics := sink.all()
	require.Len(t, metrics, 1)
	assert.Equal(t, 11*hour, metrics[0].WindowStart.Unix())
	assert.Equal(t, uint64(1), metrics[0].SwapCount)

	// A recompute ignores the checkpoint and starts from the beginning.
	j.after, j.read = nil, 0
	recompute := Config{WindowSeconds: hour, StateStore: state, RecomputeFrom: 10 * hour}
	require.NoError(t, NewAggregator(recompute, j, &memorySink{}, nil).Run(ctx))
	assert.Equal(t, []uint64{0}, j.after)
	assert.Equal(t, 5, j.read)
}
