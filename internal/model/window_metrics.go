package model

import "time"

// WindowMetrics stores aggregated pool activity for one time window.
// Volumes count swap input per asset; fees are charged on the output side.
type WindowMetrics struct {
	WindowSizeSecs   int64     `json:"window_size_seconds"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	SwapCount        uint64    `json:"swap_count"`
	VolumeA          string    `json:"volume_a"`
	VolumeB          string    `json:"volume_b"`
	FeeA             string    `json:"fee_a"`
	FeeB             string    `json:"fee_b"`
	LiquidityAdded   string    `json:"liquidity_added"`
	LiquidityRemoved string    `json:"liquidity_removed"`
	ReserveA         string    `json:"reserve_a"`
	ReserveB         string    `json:"reserve_b"`
	FeeRateA         *string   `json:"fee_rate_a"`
	FeeRateB         *string   `json:"fee_rate_b"`
	LastSeq          uint64    `json:"last_seq"`
}
