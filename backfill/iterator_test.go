package backfill

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/signlex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordIterator_Basic(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	added := addWords(t, store, 3)

	iter := NewWordIterator(store, 2) // Batch size of 2
	var ids []core.ID
	var pages int

	err := iter.ForEach(ctx, func(words []*core.Word) error {
		pages++
		for _, w := range words {
			ids = append(ids, w.Id)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []core.ID{added[0].Id, added[1].Id, added[2].Id}, ids, "insertion order")
}

func TestWordIterator_BatchSizes(t *testing.T) {
	store := setupTestStore(t)
	addWords(t, store, 10)

	tests := []struct {
		name      string
		batchSize int
		wantPages int
	}{
		{"batch size 1", 1, 10},
		{"batch size 3", 3, 4},
		{"batch size 5", 5, 2}, // final empty page ends iteration
		{"batch size 10", 10, 1},
		{"batch size 100", 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iter := NewWordIterator(store, tt.batchSize)
			pages, total := 0, 0
			err := iter.ForEach(context.Background(), func(words []*core.Word) error {
				pages++
				total += len(words)
				assert.LessOrEqual(t, len(words), tt.batchSize)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 10, total)
			assert.Equal(t, tt.wantPages, pages)
		})
	}
}

func TestWordIterator_EmptyStore(t *testing.T) {
	store := setupTestStore(t)

	called := false
	err := NewWordIterator(store, 10).ForEach(context.Background(), func(words []*core.Word) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called, "should not call fn for empty store")
}

func TestWordIterator_ErrorHandling(t *testing.T) {
	store := setupTestStore(t)
	addWords(t, store, 5)

	expectedErr := errors.New("processing error")
	calls := 0
	err := NewWordIterator(store, 2).ForEach(context.Background(), func(words []*core.Word) error {
		calls++
		if calls == 2 {
			return expectedErr
		}
		return nil
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 2, calls, "should stop after error")
}

func TestWordIterator_ContextCancellation(t *testing.T) {
	store := setupTestStore(t)
	addWords(t, store, 10)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := NewWordIterator(store, 2).ForEach(ctx, func(words []*core.Word) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestWordIterator_InvalidBatchSize(t *testing.T) {
	store := setupTestStore(t)
	assert.Equal(t, DefaultBatchSize, NewWordIterator(store, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewWordIterator(store, -5).batchSize)
}
