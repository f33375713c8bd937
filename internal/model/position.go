package model

// Position is a per-owner liquidity staking record.
type Position struct {
	Owner          string `json:"owner"`
	Address        string `json:"address"`
	StakedAmount   uint64 `json:"staked_amount"`
	LastUpdateTime int64  `json:"last_update_time"`
}
