package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/storage"
)

func TestIsCompletedScopedPerExam(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	s := &SessionService{store: store, log: zerolog.Nop()}

	examA := uuid.New()
	examB := uuid.New()

	assert.False(t, s.IsCompleted(ctx, examA, 41))

	require.NoError(t, store.Set(ctx, storage.ExamCompletedKey(41, examA.String()), "true", 0))

	assert.True(t, s.IsCompleted(ctx, examA, 41))
	assert.False(t, s.IsCompleted(ctx, examB, 41), "finishing one exam must not mark the others")
	assert.False(t, s.IsCompleted(ctx, examA, 42))
}

func TestStartExamRejectsCompletedAttempt(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	s := &SessionService{store: store, log: zerolog.Nop()}

	examID := uuid.New()
	require.NoError(t, store.Set(ctx, storage.ExamCompletedKey(41, examID.String()), "true", 0))

	_, _, err := s.StartExam(ctx, examID, 41, model.StartExamRequest{
		FullscreenGranted: true,
		CameraGranted:     true,
	})
	assert.ErrorIs(t, err, ErrExamCompleted)
}
