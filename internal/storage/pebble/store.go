// Package pebble stores pool state in a Pebble key-value database. Each
// change-set is written as one synced batch.
package pebble

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
)

var ErrDBClosed = errors.New("database is closed")

var (
	prefixBalance  = []byte("b/")
	prefixSupply   = []byte("s/")
	prefixPosition = []byte("p/")
	prefixJournal  = []byte("j/")
	keySeq         = []byte("m/seq")
	keyUpdatedAt   = []byte("m/updated_at")
)

// Store implements storage.Store on Pebble.
type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return model.Snapshot{}, false, ErrDBClosed
	}

	seq, ok, err := s.readSeq()
	if err != nil || !ok {
		return model.Snapshot{}, false, err
	}
	snap := model.Snapshot{Seq: seq}

	if raw, found, err := s.get(keyUpdatedAt); err != nil {
		return model.Snapshot{}, false, err
	} else if found {
		snap.UpdatedAt = string(raw)
	}

	err = s.scan(prefixBalance, func(key, value []byte) error {
		mint, owner, found := bytes.Cut(key, []byte("/"))
		if !found {
			return fmt.Errorf("malformed balance key %q", key)
		}
		amount, err := decodeUint(value)
		if err != nil {
			return err
		}
		snap.Balances = append(snap.Balances, model.Balance{Mint: string(mint), Owner: string(owner), Amount: amount})
		return nil
	})
	if err != nil {
		return model.Snapshot{}, false, err
	}

	err = s.scan(prefixSupply, func(key, value []byte) error {
		amount, err := decodeUint(value)
		if err != nil {
			return err
		}
		snap.Supplies = append(snap.Supplies, model.Supply{Mint: string(key), Amount: amount})
		return nil
	})
	if err != nil {
		return model.Snapshot{}, false, err
	}

	err = s.scan(prefixPosition, func(_, value []byte) error {
		var pos model.Position
		if err := json.Unmarshal(value, &pos); err != nil {
			return fmt.Errorf("decode position: %w", err)
		}
		snap.Positions = append(snap.Positions, pos)
		return nil
	})
	if err != nil {
		return model.Snapshot{}, false, err
	}

	return snap, true, nil
}

func (s *Store) Commit(ctx context.Context, cs model.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrDBClosed
	}

	seq, _, err := s.readSeq()
	if err != nil {
		return err
	}
	if cs.Operation.Seq != seq+1 {
		return fmt.Errorf("commit seq %d after %d: %w", cs.Operation.Seq, seq, storage.ErrSeqGap)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, b := range cs.Balances {
		if err := batch.Set(balanceKey(b.Mint, b.Owner), encodeUint(b.Amount), nil); err != nil {
			return err
		}
	}
	for _, sup := range cs.Supplies {
		if err := batch.Set(join(prefixSupply, sup.Mint), encodeUint(sup.Amount), nil); err != nil {
			return err
		}
	}
	for _, pos := range cs.Positions {
		value, err := json.Marshal(pos)
		if err != nil {
			return fmt.Errorf("encode position: %w", err)
		}
		if err := batch.Set(join(prefixPosition, pos.Owner), value, nil); err != nil {
			return err
		}
	}

	op, err := json.Marshal(cs.Operation)
	if err != nil {
		return fmt.Errorf("encode operation: %w", err)
	}
	if err := batch.Set(journalKey(cs.Operation.Seq), op, nil); err != nil {
		return err
	}
	if err := batch.Set(keySeq, encodeUint(cs.Operation.Seq), nil); err != nil {
		return err
	}
	if err := batch.Set(keyUpdatedAt, []byte(cs.Operation.CommittedAt), nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

func (s *Store) Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error {
	s.mu.Lock()
	if s.db == nil {
		s.mu.Unlock()
		return ErrDBClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: journalKey(afterSeq + 1),
		UpperBound: upperBound(prefixJournal),
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var op model.Operation
		if err := json.Unmarshal(iter.Value(), &op); err != nil {
			return fmt.Errorf("decode operation: %w", err)
		}
		if err := fn(op); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *Store) readSeq() (uint64, bool, error) {
	raw, ok, err := s.get(keySeq)
	if err != nil || !ok {
		return 0, false, err
	}
	seq, err := decodeUint(raw)
	return seq, err == nil, err
}

func (s *Store) get(key []byte) ([]byte, bool, error) {
	val, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()

	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, true, nil
}

// scan visits every key under prefix with the prefix stripped.
func (s *Store) scan(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key()[len(prefix):], iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func join(prefix []byte, parts ...string) []byte {
	key := append([]byte(nil), prefix...)
	for i, p := range parts {
		if i > 0 {
			key = append(key, '/')
		}
		key = append(key, p...)
	}
	return key
}

func balanceKey(mint, owner string) []byte {
	return join(prefixBalance, mint, owner)
}

func journalKey(seq uint64) []byte {
	key := append([]byte(nil), prefixJournal...)
	return binary.BigEndian.AppendUint64(key, seq)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func encodeUint(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeUint(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid uint64 value length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
