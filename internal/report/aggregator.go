// Package report aggregates the operation journal into per-window pool
// metrics.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds int64
	BatchSize     int
	RecomputeFrom int64
	StateStore    StateStore
}

// JournalReader streams committed operations in sequence order.
type JournalReader interface {
	Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error
}

// Aggregator aggregates journaled operations into window metrics.
type Aggregator struct {
	cfg          Config
	journal      JournalReader
	sink         storage.MetricsSink
	logger       *zap.Logger
	accumulators map[int64]*Accumulator
}

func NewAggregator(cfg Config, journal JournalReader, sink storage.MetricsSink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		journal:      journal,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[int64]*Accumulator),
	}
}

// Run aggregates every operation newer than the saved checkpoint. The
// newest window is treated as still open: the checkpoint stops just before
// it so the next run recomputes it in full, reading the journal from the
// first operation of that window.
func (a *Aggregator) Run(ctx context.Context) error {
	if a.journal == nil {
		return fmt.Errorf("journal is nil")
	}
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.cfg.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	from, err := a.loadCheckpoint(ctx)
	if err != nil {
		return err
	}
	startTs := from.LastProcessedTS

	var total, skipped, failed int
	err = a.journal.Journal(ctx, from.LastSeq, func(op model.Operation) error {
		total++
		if op.Timestamp < 0 {
			failed++
			a.logger.Warn("negative operation timestamp", zap.Uint64("seq", op.Seq), zap.Int64("ts", op.Timestamp))
			return nil
		}
		if op.Timestamp <= startTs {
			skipped++
			return nil
		}

		ws := windowStart(op.Timestamp, a.cfg.WindowSeconds)
		acc := a.accumulators[ws]
		if acc == nil {
			acc = NewAccumulator(ws, ws+a.cfg.WindowSeconds)
			a.accumulators[ws] = acc
		}
		if err := acc.AddOperation(op); err != nil {
			failed++
			a.logger.Warn("aggregate operation", zap.Error(err), zap.Uint64("seq", op.Seq), zap.String("kind", string(op.Kind)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	resumeSeq := a.resumeSeq(from.LastSeq)
	windows := a.flushAll()
	for i := 0; i < len(windows); i += a.cfg.BatchSize {
		end := i + a.cfg.BatchSize
		if end > len(windows) {
			end = len(windows)
		}
		if err := a.sink.PutWindowMetrics(ctx, windows[i:end]); err != nil {
			return err
		}
	}

	if err := a.saveState(ctx, windows, startTs, resumeSeq); err != nil {
		return err
	}

	a.logger.Info("report complete",
		zap.Uint64("after_seq", from.LastSeq),
		zap.Int("total", total),
		zap.Int("windows", len(windows)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

// loadCheckpoint returns where to resume. A recompute rereads the whole
// journal and filters by timestamp alone.
func (a *Aggregator) loadCheckpoint(ctx context.Context) (Checkpoint, error) {
	if a.cfg.RecomputeFrom > 0 {
		return Checkpoint{LastProcessedTS: a.cfg.RecomputeFrom - 1}, nil
	}
	if a.cfg.StateStore == nil {
		return Checkpoint{LastProcessedTS: -1}, nil
	}
	cp, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	if !ok {
		return Checkpoint{LastProcessedTS: -1}, nil
	}
	return cp, nil
}

// resumeSeq is the last seq before the first operation of the open window.
func (a *Aggregator) resumeSeq(afterSeq uint64) uint64 {
	var open *Accumulator
	for _, acc := range a.accumulators {
		if open == nil || acc.WindowStart > open.WindowStart {
			open = acc
		}
	}
	if open == nil || open.FirstSeq == 0 || open.FirstSeq-1 < afterSeq {
		return afterSeq
	}
	return open.FirstSeq - 1
}

func (a *Aggregator) saveState(ctx context.Context, windows []model.WindowMetrics, startTs int64, seq uint64) error {
	if a.cfg.StateStore == nil || len(windows) == 0 {
		return nil
	}
	safeTs := windows[len(windows)-1].WindowStart.Unix() - 1
	if safeTs < startTs {
		safeTs = startTs
	}
	return a.cfg.StateStore.Save(ctx, Checkpoint{LastProcessedTS: safeTs, LastSeq: seq})
}

// flushAll converts every open accumulator to metrics, oldest first.
func (a *Aggregator) flushAll() []model.WindowMetrics {
	starts := make([]int64, 0, len(a.accumulators))
	for ws := range a.accumulators {
		starts = append(starts, ws)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	out := make([]model.WindowMetrics, 0, len(starts))
	for _, ws := range starts {
		out = append(out, a.metrics(a.accumulators[ws]))
	}
	a.accumulators = make(map[int64]*Accumulator)
	return out
}

func (a *Aggregator) metrics(acc *Accumulator) model.WindowMetrics {
	return model.WindowMetrics{
		WindowSizeSecs:   a.cfg.WindowSeconds,
		WindowStart:      time.Unix(acc.WindowStart, 0).UTC(),
		WindowEnd:        time.Unix(acc.WindowEnd, 0).UTC(),
		SwapCount:        acc.SwapCount,
		VolumeA:          acc.VolumeA.String(),
		VolumeB:          acc.VolumeB.String(),
		FeeA:             acc.FeeA.String(),
		FeeB:             acc.FeeB.String(),
		LiquidityAdded:   acc.LiquidityAdded.String(),
		LiquidityRemoved: acc.LiquidityRemoved.String(),
		ReserveA:         amount(acc.ReserveA).String(),
		ReserveB:         amount(acc.ReserveB).String(),
		FeeRateA:         feeRate(acc.FeeA, acc.ReserveA),
		FeeRateB:         feeRate(acc.FeeB, acc.ReserveB),
		LastSeq:          acc.LastSeq,
	}
}
