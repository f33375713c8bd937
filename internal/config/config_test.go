package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	emptyDir(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, ClockSystem, cfg.Clock)
	assert.Equal(t, "./data", cfg.StateDir)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)

	pc, err := cfg.Pool()
	require.NoError(t, err)
	assert.NotEqual(t, pc.MintA, pc.MintB)
}

func TestLoadPrecedence(t *testing.T) {
	emptyDir(t)
	path := filepath.Join(t.TempDir(), "stakeswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: pebble\nstate-dir: /var/lib/stakeswap\nlog-level: debug\n"), 0o644))

	t.Setenv("STAKESWAP_STATE_DIR", "/tmp/from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level=warn"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, BackendPebble, cfg.Backend)
	assert.Equal(t, "/tmp/from-env", cfg.StateDir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	emptyDir(t)

	t.Setenv("STAKESWAP_BACKEND", "postgres")
	_, err := Load("", nil)
	require.Error(t, err)

	t.Setenv("STAKESWAP_BACKEND", "memory")
	t.Setenv("STAKESWAP_CLOCK", "chain")
	_, err = Load("", nil)
	require.Error(t, err)

	t.Setenv("STAKESWAP_RPC", "http://localhost:8545")
	_, err = Load("", nil)
	require.NoError(t, err)

	t.Setenv("STAKESWAP_BACKEND", "sqlite")
	_, err = Load("", nil)
	require.Error(t, err)
}

func TestPoolRejectsBadAddress(t *testing.T) {
	cfg := Config{ProgramID: "0x01", MintA: "nope"}
	_, err := cfg.Pool()
	require.Error(t, err)
}

func TestLoadReport(t *testing.T) {
	emptyDir(t)
	t.Setenv("STAKESWAP_WINDOW", "5m")
	t.Setenv("STAKESWAP_RECOMPUTE_FROM", "2024-01-01T00:00:00Z")

	cfg, err := LoadReport("", nil)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, int64(1704067200), cfg.RecomputeFrom)
	assert.Equal(t, 1000, cfg.BatchSize)

	t.Setenv("STAKESWAP_WINDOW", "10ms")
	_, err = LoadReport("", nil)
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = ParseTimestamp("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}
