// Package storage persists pool state: a snapshot of balances, supplies
// and positions plus the append-only operation journal.
package storage

import (
	"context"
	"errors"
	"sort"

	"stakeSwap/internal/model"
)

// ErrSeqGap is returned when a change-set does not follow the stored
// journal sequence.
var ErrSeqGap = errors.New("journal sequence gap")

// Store is a pool state backend. Commit must be all-or-nothing.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, bool, error)
	Commit(ctx context.Context, cs model.ChangeSet) error
	Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error
	Close() error
}

// MetricsSink receives aggregated window metrics.
type MetricsSink interface {
	PutWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error
}

// Merge applies a change-set onto a snapshot in place.
func Merge(snap *model.Snapshot, cs model.ChangeSet) {
	balances := make(map[[2]string]int, len(snap.Balances))
	for i, b := range snap.Balances {
		balances[[2]string{b.Mint, b.Owner}] = i
	}
	for _, b := range cs.Balances {
		if i, ok := balances[[2]string{b.Mint, b.Owner}]; ok {
			snap.Balances[i] = b
			continue
		}
		snap.Balances = append(snap.Balances, b)
	}
	sort.Slice(snap.Balances, func(i, j int) bool {
		if snap.Balances[i].Mint != snap.Balances[j].Mint {
			return snap.Balances[i].Mint < snap.Balances[j].Mint
		}
		return snap.Balances[i].Owner < snap.Balances[j].Owner
	})

	supplies := make(map[string]int, len(snap.Supplies))
	for i, s := range snap.Supplies {
		supplies[s.Mint] = i
	}
	for _, s := range cs.Supplies {
		if i, ok := supplies[s.Mint]; ok {
			snap.Supplies[i] = s
			continue
		}
		snap.Supplies = append(snap.Supplies, s)
	}
	sort.Slice(snap.Supplies, func(i, j int) bool { return snap.Supplies[i].Mint < snap.Supplies[j].Mint })

	positions := make(map[string]int, len(snap.Positions))
	for i, p := range snap.Positions {
		positions[p.Owner] = i
	}
	for _, p := range cs.Positions {
		if i, ok := positions[p.Owner]; ok {
			snap.Positions[i] = p
			continue
		}
		snap.Positions = append(snap.Positions, p)
	}
	sort.Slice(snap.Positions, func(i, j int) bool { return snap.Positions[i].Owner < snap.Positions[j].Owner })

	if cs.Operation.Seq > snap.Seq {
		snap.Seq = cs.Operation.Seq
	}
	if cs.Operation.CommittedAt != "" {
		snap.UpdatedAt = cs.Operation.CommittedAt
	}
}
