package pebble

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
	"stakeSwap/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	open := func(t *testing.T) storage.Store {
		s, err := Open(path)
		require.NoError(t, err)
		return s
	}
	storagetest.Run(t, open, open)
}

func TestJournalKeysSortBySeq(t *testing.T) {
	assert.Less(t, string(journalKey(9)), string(journalKey(10)))
	assert.Less(t, string(journalKey(255)), string(journalKey(256)))
	assert.Equal(t, []byte("j0"), upperBound(prefixJournal))
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err = s.Load(context.Background())
	require.ErrorIs(t, err, ErrDBClosed)
	err = s.Commit(context.Background(), model.ChangeSet{Operation: model.Operation{Seq: 1}})
	require.ErrorIs(t, err, ErrDBClosed)
}
