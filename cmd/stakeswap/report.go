package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeSwap/internal/config"
	"stakeSwap/internal/report"
	"stakeSwap/internal/storage"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the operation journal into window metrics",
		RunE:  runReport,
	}
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	cmd.Flags().String("out", "", "JSONL output path (default <state-dir>/window_metrics.jsonl, ignored for postgres)")
	cmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	cmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := commandContext()
	defer stop()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Backend == config.BackendMemory {
		return fmt.Errorf("the memory backend keeps no journal to report on")
	}

	a, err := openAppWithConfig(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	windowSeconds := int64(cfg.Window.Seconds())

	var sink storage.MetricsSink
	var stateStore report.StateStore
	if a.pg != nil {
		sink = a.pg
		stateStore = &report.DBStateStore{Store: a.pg, Name: fmt.Sprintf("report:%s:%d", cfg.PoolName, windowSeconds)}
	} else {
		out := cfg.Out
		if out == "" {
			out = filepath.Join(cfg.StateDir, "window_metrics.jsonl")
		}
		sink = storage.NewJsonlStorage(out)
		stateStore = &report.FileStateStore{Path: filepath.Join(cfg.StateDir, fmt.Sprintf("report_state_%d.json", windowSeconds))}
	}
	if cfg.StateFile != "" {
		stateStore = &report.FileStateStore{Path: cfg.StateFile}
	}

	agg := report.NewAggregator(report.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		StateStore:    stateStore,
	}, a.store, sink, a.logger)

	a.logger.Info("report start",
		zap.String("backend", cfg.Backend),
		zap.Int64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int64("recompute_from", cfg.RecomputeFrom),
	)

	return agg.Run(ctx)
}
