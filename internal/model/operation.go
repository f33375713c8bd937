package model

import (
	"fmt"
	"strings"
)

// OperationKind names a public pool operation.
type OperationKind string

const (
	KindOpenPosition    OperationKind = "open_position"
	KindAddLiquidity    OperationKind = "add_liquidity"
	KindRemoveLiquidity OperationKind = "remove_liquidity"
	KindSwap            OperationKind = "swap"
	// KindFund is an issuer mint on the external ledger, journaled so the
	// faucet balance survives restarts. It never touches the vaults.
	KindFund OperationKind = "fund"
)

// Direction is the side of a swap.
type Direction string

const (
	AToB Direction = "a_to_b"
	BToA Direction = "b_to_a"
)

// ParseDirection accepts a_to_b / b_to_a in either snake or kebab case.
func ParseDirection(input string) (Direction, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), "-", "_")
	switch Direction(normalized) {
	case AToB:
		return AToB, nil
	case BToA:
		return BToA, nil
	default:
		return "", fmt.Errorf("invalid swap direction: %q", input)
	}
}

// Operation is the journal entry written for every committed operation.
// Reserves and StakedAmount are the values after the operation.
type Operation struct {
	ID           string        `json:"id"`
	Seq          uint64        `json:"seq"`
	Kind         OperationKind `json:"kind"`
	Owner        string        `json:"owner"`
	Direction    Direction     `json:"direction,omitempty"`
	Amount       uint64        `json:"amount"`
	MinAmountOut uint64        `json:"min_amount_out,omitempty"`
	GrossOut     uint64        `json:"gross_out,omitempty"`
	Fee          uint64        `json:"fee,omitempty"`
	NetOut       uint64        `json:"net_out,omitempty"`
	ReserveA     uint64        `json:"reserve_a"`
	ReserveB     uint64        `json:"reserve_b"`
	StakedAmount uint64        `json:"staked_amount"`
	Timestamp    int64         `json:"timestamp"`
	CommittedAt  string        `json:"committed_at"`
}
