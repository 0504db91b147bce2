package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir() + "/lexicon"
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestUpdate(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful update commits", func(t *testing.T) {
		err := backend.Update(ctx, func(tx *badger.Txn) error {
			return tx.Set([]byte("k"), []byte("v"))
		})
		require.NoError(t, err)

		err = backend.View(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("k"))
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		err := backend.Update(ctx, func(tx *badger.Txn) error {
			if err := tx.Set([]byte("gone"), []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		err = backend.View(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("gone"))
			return err
		})
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := backend.Update(cctx, func(tx *badger.Txn) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNextID(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	defer seq.Release()

	id1, err := nextID(seq)
	require.NoError(t, err)
	id2, err := nextID(seq)
	require.NoError(t, err)

	assert.Positive(t, id1)
	assert.Greater(t, id2, id1)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"unnormalized", []float32{2, 0}, []float32{3, 3}, 0.70710677},
		{"zero vector", []float32{1, 0}, []float32{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cosineSimilarity(tt.a, norm(tt.a), tt.b)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestKeysPreserveIDOrder(t *testing.T) {
	assert.Less(t, string(makeWordKey(255)), string(makeWordKey(256)))
	assert.Less(t, string(makeWordRecordKey(1, 900)), string(makeWordRecordKey(2, 1)))
	assert.Equal(t, int64(300), int64(idFromKeySuffix(makeSentenceRecordKey(7, 300))))
}
