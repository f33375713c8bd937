package model

// Snapshot is the full persisted state of one pool and its token ledger.
type Snapshot struct {
	Balances  []Balance  `json:"balances"`
	Supplies  []Supply   `json:"supplies"`
	Positions []Position `json:"positions"`
	Seq       uint64     `json:"seq"`
	UpdatedAt string     `json:"updated_at"`
}

// ChangeSet carries the entries touched by one committed operation.
type ChangeSet struct {
	Balances  []Balance
	Supplies  []Supply
	Positions []Position
	Operation Operation
}
