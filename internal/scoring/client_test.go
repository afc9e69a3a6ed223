package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
)

func testEnvelope() *model.SubmissionEnvelope {
	return &model.SubmissionEnvelope{
		CandidateInfo: model.CandidateInfo{
			Name:        "Jordan Reyes",
			Email:       "jordan@example.com",
			CandidateID: "41",
		},
		Answers: []model.SubmissionRecord{
			{Tid: "T1", Ttit: "Pick one", Type: "SingleSelect", Selopt: "Option 2", TimeTaken: 12, Skills: []string{"general"}},
		},
		SubmissionDateTime: "2026-08-31 10:15:00",
	}
}

func TestDeliverPostsEnvelope(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	delivered, err := client.Deliver(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.True(t, delivered)

	// Candidate identity spreads into the top level of the envelope.
	assert.Equal(t, "Jordan Reyes", received["name"])
	assert.Equal(t, "41", received["candidateId"])
	assert.Equal(t, "2026-08-31 10:15:00", received["submissionDateTime"])
}

func TestDeliverNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	delivered, err := client.Deliver(context.Background(), testEnvelope())
	assert.Error(t, err)
	assert.False(t, delivered)
}

func TestDeliverDisabledWithoutURL(t *testing.T) {
	client := New("", zerolog.Nop())
	assert.False(t, client.Enabled())

	delivered, err := client.Deliver(context.Background(), testEnvelope())
	assert.NoError(t, err)
	assert.False(t, delivered)
}
