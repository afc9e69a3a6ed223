package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, CandidateInfoKey(7), `{"name":"Ada"}`, 0))
	val, err := store.Get(ctx, CandidateInfoKey(7))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ada"}`, val)

	require.NoError(t, store.Delete(ctx, CandidateInfoKey(7)))
	_, err = store.Get(ctx, CandidateInfoKey(7))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	key := ExamCompletedKey(1, "exam-a")
	require.NoError(t, store.Set(ctx, key, "true", time.Minute))

	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "true", val)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyNamespacing(t *testing.T) {
	assert.Equal(t, "candidate:7:candidateInfo", CandidateInfoKey(7))
	assert.Equal(t, "candidate:7:examConfig", ExamConfigKey(7))
	assert.Equal(t, "candidate:7:examCompleted:exam-a", ExamCompletedKey(7, "exam-a"))
	assert.NotEqual(t, CandidateInfoKey(1), CandidateInfoKey(2))
	assert.NotEqual(t, ExamCompletedKey(7, "exam-a"), ExamCompletedKey(7, "exam-b"))
}
