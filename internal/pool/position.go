package pool

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"stakeSwap/internal/model"
)

// LockDuration is the number of seconds a position stays locked after its
// most recent deposit.
const LockDuration uint64 = 100

// lockExpired reports whether at least LockDuration seconds separate last
// from now. A clock reading earlier than last counts as locked.
func lockExpired(last, now int64) bool {
	if now < last {
		return false
	}
	return uint64(now)-uint64(last) >= LockDuration
}

// lockRemaining returns the seconds left on the lock, zero once expired.
func lockRemaining(last, now int64) uint64 {
	if lockExpired(last, now) {
		return 0
	}
	if now < last {
		return LockDuration + (uint64(last) - uint64(now))
	}
	return LockDuration - (uint64(now) - uint64(last))
}

// positionBook holds committed positions keyed by owner.
type positionBook map[common.Address]model.Position

// positionOverlay buffers position writes for one operation.
type positionOverlay struct {
	base    positionBook
	written map[common.Address]model.Position
}

func newPositionOverlay(base positionBook) *positionOverlay {
	return &positionOverlay{base: base, written: make(map[common.Address]model.Position)}
}

func (o *positionOverlay) get(owner common.Address) (model.Position, bool) {
	if pos, ok := o.written[owner]; ok {
		return pos, true
	}
	pos, ok := o.base[owner]
	return pos, ok
}

func (o *positionOverlay) put(owner common.Address, pos model.Position) {
	o.written[owner] = pos
}

func (o *positionOverlay) changes() []model.Position {
	out := make([]model.Position, 0, len(o.written))
	for _, pos := range o.written {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out
}

func (o *positionOverlay) apply() {
	for owner, pos := range o.written {
		o.base[owner] = pos
	}
}
