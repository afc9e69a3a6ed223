// Package scoring delivers finalized submission envelopes to the remote
// scoring service over HTTP.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/model"
)

// Client posts submission envelopes to the scoring endpoint. A client
// built with an empty URL is disabled: Deliver reports false without
// touching the network, and the submission worker persists the envelope
// as undelivered.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

// New creates a scoring client for the given endpoint URL.
func New(url string, log zerolog.Logger) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log.With().Str("component", "scoring_client").Logger(),
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Deliver posts the envelope and reports whether the scoring service
// accepted it. Delivery failure is not fatal to the submission flow; the
// envelope is persisted either way and delivery can be retried offline.
func (c *Client) Deliver(ctx context.Context, env *model.SubmissionEnvelope) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("scoring service returned %d", resp.StatusCode)
	}

	c.log.Info().
		Str("candidate", env.Email).
		Int("answers", len(env.Answers)).
		Msg("Submission delivered to scoring service")
	return true, nil
}
