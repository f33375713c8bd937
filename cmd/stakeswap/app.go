package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeSwap/internal/chain"
	"stakeSwap/internal/clock"
	"stakeSwap/internal/config"
	"stakeSwap/internal/pool"
	"stakeSwap/internal/storage"
	"stakeSwap/internal/storage/pebble"
	"stakeSwap/internal/storage/postgres"
	"stakeSwap/internal/token"
)

// app is one opened pool with its ledger, store and clock.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	ledger *token.Ledger
	pool   *pool.Pool
	store  storage.Store
	pg     *postgres.Store
	issuer common.Address

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return openAppWithConfig(ctx, cfg)
}

func openAppWithConfig(ctx context.Context, cfg config.Config) (*app, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	poolCfg, err := cfg.Pool()
	if err != nil {
		return nil, err
	}
	a.issuer, err = cfg.IssuerAddress()
	if err != nil {
		return nil, err
	}

	clk, err := a.openClock(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	a.ledger = token.NewLedger()
	var poolStore pool.Store
	if a.store != nil {
		poolStore = a.store
	}
	a.pool, err = pool.New(poolCfg, a.ledger, clk, poolStore, logger)
	if err != nil {
		return nil, err
	}

	a.ledger.RegisterMint(poolCfg.MintA, a.issuer)
	a.ledger.RegisterMint(poolCfg.MintB, a.issuer)
	a.ledger.RegisterMint(poolCfg.ReceiptMint, a.pool.ReceiptAuthority())

	if err := a.restore(ctx); err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func (a *app) openClock(ctx context.Context) (pool.Clock, error) {
	switch a.cfg.Clock {
	case config.ClockChain:
		client, err := chain.NewClient(ctx, a.cfg.RPCURL, a.cfg.MaxRetries, a.cfg.RetryBackoff, a.logger.Named("chain"))
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if chainID, err := client.GetChainID(ctx); err == nil {
			a.logger.Debug("chain clock", zap.String("rpc", a.cfg.RPCURL), zap.String("chain_id", chainID.String()))
		}
		return client, nil
	default:
		return clock.System{}, nil
	}
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Backend {
	case config.BackendMemory:
		return nil
	case config.BackendFile:
		s, err := storage.NewFileStore(a.cfg.StateDir)
		if err != nil {
			return err
		}
		a.store = s
	case config.BackendPebble:
		s, err := pebble.Open(filepath.Join(a.cfg.StateDir, "stakeswap.db"))
		if err != nil {
			return err
		}
		a.store = s
	case config.BackendPostgres:
		s, err := postgres.NewStore(ctx, a.cfg.PGDSN, a.cfg.PoolName)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.store = s
		a.pg = s
	default:
		return fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
	a.closers = append(a.closers, func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	})
	return nil
}

func (a *app) restore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	snap, found, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !found {
		return nil
	}
	if err := a.ledger.Load(snap.Balances, snap.Supplies); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	if err := a.pool.Restore(snap.Positions, snap.Seq); err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}
	a.logger.Debug("state restored",
		zap.String("backend", a.cfg.Backend),
		zap.Uint64("seq", snap.Seq),
		zap.Int("positions", len(snap.Positions)),
	)
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
