package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint marks how far a report run got. Every operation with
// Seq <= LastSeq has a timestamp <= LastProcessedTS, so a resumed run can
// start reading the journal after LastSeq.
type Checkpoint struct {
	LastProcessedTS int64
	LastSeq         uint64
}

// StateStore persists the report checkpoint.
type StateStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastProcessed int64  `json:"last_processed_ts"`
	LastSeq       uint64 `json:"last_seq"`
	UpdatedAt     string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Path == "" {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse state: %w", err)
	}
	return Checkpoint{LastProcessedTS: rec.LastProcessed, LastSeq: rec.LastSeq}, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	rec := stateRecord{
		LastProcessed: cp.LastProcessedTS,
		LastSeq:       cp.LastSeq,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// NamedState is a table of named checkpoints, such as the report_state
// table in Postgres.
type NamedState interface {
	LoadState(ctx context.Context, name string) (ts, seq uint64, ok bool, err error)
	SaveState(ctx context.Context, name string, ts, seq uint64) error
}

// DBStateStore stores state under Name in a NamedState.
type DBStateStore struct {
	Store NamedState
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	ts, seq, ok, err := s.Store.LoadState(ctx, s.Name)
	return Checkpoint{LastProcessedTS: int64(ts), LastSeq: seq}, ok, err
}

func (s *DBStateStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Store == nil {
		return nil
	}
	ts := cp.LastProcessedTS
	if ts < 0 {
		ts = 0
	}
	return s.Store.SaveState(ctx, s.Name, uint64(ts), cp.LastSeq)
}
