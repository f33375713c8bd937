package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	Config
	Window        time.Duration
	BatchSize     int
	Out           string
	StateFile     string
	RecomputeFrom int64
}

// LoadReport merges config file, environment variables, and flags into
// ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	base, err := Load(cfgFile, flags)
	if err != nil {
		return ReportConfig{}, err
	}
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReportConfig{}, err
	}

	window, err := time.ParseDuration(v.GetString("window"))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("invalid window: %w", err)
	}
	if window < time.Second {
		return ReportConfig{}, fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := ParseTimestamp(v.GetString("recompute-from"))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("parse recompute-from: %w", err)
	}

	return ReportConfig{
		Config:        base,
		Window:        window,
		BatchSize:     v.GetInt("batch-size"),
		Out:           v.GetString("out"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: recomputeFrom,
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
