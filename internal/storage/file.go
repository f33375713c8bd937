package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stakeSwap/internal/model"
)

const (
	snapshotFile = "state.json"
	journalFile  = "journal.jsonl"
)

// FileStore keeps the snapshot as a JSON file replaced via tmp+rename and
// the journal as JSON lines.
//
// The journal line is appended before the snapshot is replaced. The
// snapshot's Seq is authoritative: journal lines beyond it belong to a
// commit that never completed and are ignored, and a repeated seq keeps the
// last line written.
type FileStore struct {
	dir string

	mu   sync.Mutex
	snap model.Snapshot
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &FileStore{dir: dir}
	snap, _, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	s.snap = snap
	return s, nil
}

func (s *FileStore) snapshotPath() string { return filepath.Join(s.dir, snapshotFile) }
func (s *FileStore) journalPath() string  { return filepath.Join(s.dir, journalFile) }

func (s *FileStore) readSnapshot() (model.Snapshot, bool, error) {
	stat, err := os.Stat(s.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.Snapshot{}, false, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// Load returns the last committed snapshot.
func (s *FileStore) Load(context.Context) (model.Snapshot, bool, error) {
	return s.readSnapshot()
}

// Commit appends the journal record and then replaces the snapshot.
func (s *FileStore) Commit(_ context.Context, cs model.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs.Operation.Seq != s.snap.Seq+1 {
		return fmt.Errorf("commit seq %d after %d: %w", cs.Operation.Seq, s.snap.Seq, ErrSeqGap)
	}

	if err := s.appendJournal(cs.Operation); err != nil {
		return err
	}

	next := cloneSnapshot(s.snap)
	Merge(&next, cs)
	if err := s.writeSnapshot(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// Journal calls fn for every committed operation with Seq > afterSeq, in
// order.
func (s *FileStore) Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error {
	s.mu.Lock()
	limit := s.snap.Seq
	s.mu.Unlock()

	file, err := os.Open(s.journalPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	ops := make(map[uint64]model.Operation)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			return fmt.Errorf("parse journal line: %w", err)
		}
		if op.Seq <= afterSeq || op.Seq > limit {
			continue
		}
		ops[op.Seq] = op
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	for seq := afterSeq + 1; seq <= limit; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		op, ok := ops[seq]
		if !ok {
			return fmt.Errorf("journal missing seq %d: %w", seq, ErrSeqGap)
		}
		if err := fn(op); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) appendJournal(op model.Operation) error {
	file, err := os.OpenFile(s.journalPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	line = append(line, '\n')
	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("write operation: %w", err)
	}
	return file.Sync()
}

func (s *FileStore) writeSnapshot(snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := s.snapshotPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.snapshotPath()); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func cloneSnapshot(snap model.Snapshot) model.Snapshot {
	out := snap
	out.Balances = append([]model.Balance(nil), snap.Balances...)
	out.Supplies = append([]model.Supply(nil), snap.Supplies...)
	out.Positions = append([]model.Position(nil), snap.Positions...)
	return out
}
