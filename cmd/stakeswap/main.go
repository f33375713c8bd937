package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("load .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "stakeswap",
		Short:        "Two-asset swap pool with time-locked liquidity staking",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("backend", "file", "state backend (memory, file, pebble, postgres)")
	flags.String("state-dir", "./data", "state directory for the file and pebble backends")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("pool-name", "default", "pool name used to scope persisted state")
	flags.String("program-id", "", "program id used to derive vault and mint authorities")
	flags.String("mint-a", "", "token A mint address")
	flags.String("mint-b", "", "token B mint address")
	flags.String("receipt-mint", "", "liquidity receipt mint address")
	flags.String("issuer", "", "mint authority of token A and B on the external ledger")
	flags.String("clock", "system", "time source (system, chain)")
	flags.String("rpc", "", "RPC URL for the chain clock")
	flags.Int("max-retries", 5, "maximum retry attempts for RPC calls")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")

	root.AddCommand(
		newOpenCmd(),
		newAddLiquidityCmd(),
		newRemoveLiquidityCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newShowCmd(),
		newFundCmd(),
		newReportCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
