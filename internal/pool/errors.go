package pool

import (
	"errors"

	"stakeSwap/internal/amm"
)

var (
	ErrCalculation                 = amm.ErrCalculation
	ErrSlippageExceeded            = amm.ErrSlippageExceeded
	ErrInsufficientTokenA          = errors.New("insufficient token A in vault")
	ErrInsufficientTokenB          = errors.New("insufficient token B in vault")
	ErrInsufficientLiquidityTokens = errors.New("insufficient liquidity tokens staked")
	// ErrTimeConstraint is returned while a position is still locked. The
	// lock is LockDuration seconds; older tooling described it as ten days.
	ErrTimeConstraint = errors.New("time constraint: liquidity is still locked")

	// ErrZeroAmount rejects deposits, withdrawals and swaps of zero.
	ErrZeroAmount       = errors.New("amount must be greater than zero")
	ErrPositionExists   = errors.New("liquidity position already exists")
	ErrPositionNotFound = errors.New("liquidity position not found")
)
