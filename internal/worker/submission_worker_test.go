package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
)

type fakeSubmissionStore struct {
	insertErr      error
	insertedFlags  []bool
	markedExamID   uuid.UUID
	markedCalls    int
	markDeliverErr error
}

func (f *fakeSubmissionStore) Insert(_ context.Context, _ uuid.UUID, _ int, _ *model.SubmissionEnvelope, delivered bool) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertedFlags = append(f.insertedFlags, delivered)
	return nil
}

func (f *fakeSubmissionStore) MarkDelivered(_ context.Context, examID uuid.UUID, _ int) error {
	if f.markDeliverErr != nil {
		return f.markDeliverErr
	}
	f.markedExamID = examID
	f.markedCalls++
	return nil
}

type fakeDeliverer struct {
	enabled bool
	result  bool
	err     error
	calls   int
}

func (f *fakeDeliverer) Enabled() bool { return f.enabled }

func (f *fakeDeliverer) Deliver(_ context.Context, _ *model.SubmissionEnvelope) (bool, error) {
	f.calls++
	return f.result, f.err
}

func newTestWorker(store *fakeSubmissionStore, deliverer *fakeDeliverer) *SubmissionWorker {
	return &SubmissionWorker{
		repo:    store,
		scoring: deliverer,
		log:     zerolog.Nop(),
	}
}

func testPayload(delivered bool) *SubmissionPayload {
	return &SubmissionPayload{
		CandidateID: 41,
		ExamID:      uuid.NewString(),
		Delivered:   delivered,
		Envelope: model.SubmissionEnvelope{
			CandidateInfo:      model.CandidateInfo{Name: "Jordan Reyes", CandidateID: "41"},
			SubmissionDateTime: "2026-08-31 10:00:00",
		},
	}
}

func TestPersistRetriesUndeliveredEnvelope(t *testing.T) {
	store := &fakeSubmissionStore{}
	deliverer := &fakeDeliverer{enabled: true, result: true}
	w := newTestWorker(store, deliverer)

	p := testPayload(false)
	w.persist(context.Background(), p, "{}")

	require.Equal(t, []bool{false}, store.insertedFlags)
	assert.Equal(t, 1, deliverer.calls)
	assert.Equal(t, 1, store.markedCalls)
	assert.Equal(t, p.ExamID, store.markedExamID.String())
}

func TestPersistSkipsRetryWhenAlreadyDelivered(t *testing.T) {
	store := &fakeSubmissionStore{}
	deliverer := &fakeDeliverer{enabled: true, result: true}
	w := newTestWorker(store, deliverer)

	w.persist(context.Background(), testPayload(true), "{}")

	require.Equal(t, []bool{true}, store.insertedFlags)
	assert.Zero(t, deliverer.calls)
	assert.Zero(t, store.markedCalls)
}

func TestPersistKeepsUndeliveredOnRetryFailure(t *testing.T) {
	store := &fakeSubmissionStore{}
	deliverer := &fakeDeliverer{enabled: true, err: errors.New("scoring down")}
	w := newTestWorker(store, deliverer)

	w.persist(context.Background(), testPayload(false), "{}")

	require.Equal(t, []bool{false}, store.insertedFlags)
	assert.Equal(t, 1, deliverer.calls)
	assert.Zero(t, store.markedCalls)
}

func TestPersistSkipsRetryWhenScoringDisabled(t *testing.T) {
	store := &fakeSubmissionStore{}
	deliverer := &fakeDeliverer{enabled: false}
	w := newTestWorker(store, deliverer)

	w.persist(context.Background(), testPayload(false), "{}")

	assert.Zero(t, deliverer.calls)
	assert.Zero(t, store.markedCalls)
}
