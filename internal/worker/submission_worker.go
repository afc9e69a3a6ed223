package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/config"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/repository"
)

const (
	SubmissionPollTimeout = 1 * time.Second
)

// submissionStore is the repository surface the worker persists through.
type submissionStore interface {
	Insert(ctx context.Context, examID uuid.UUID, candidateID int, env *model.SubmissionEnvelope, delivered bool) error
	MarkDelivered(ctx context.Context, examID uuid.UUID, candidateID int) error
}

// scoringDeliverer retries envelope delivery for messages that arrived
// undelivered (the synchronous attempt at submit time failed).
type scoringDeliverer interface {
	Enabled() bool
	Deliver(ctx context.Context, env *model.SubmissionEnvelope) (bool, error)
}

// SubmissionWorker drains the submission queue into PostgreSQL. Each
// message is one finalized envelope; inserts are transactional per
// message (envelope row + answer rows), so there is no cross-message
// batching here, unlike the violation worker.
type SubmissionWorker struct {
	repo    submissionStore
	scoring scoringDeliverer
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(repo *repository.SubmissionRepository, scoring scoringDeliverer, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		repo:    repo,
		scoring: scoring,
		rdb:     rdb,
		log:     log.With().Str("component", "submission_worker").Logger(),
	}
}

// SubmissionPayload is the queue message for one finalized submission.
type SubmissionPayload struct {
	CandidateID int                      `json:"candidate_id"`
	ExamID      string                   `json:"exam_id"`
	Delivered   bool                     `json:"delivered"`
	Envelope    model.SubmissionEnvelope `json:"envelope"`
}

// Start runs the drain loop until ctx is canceled.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionWorker started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, SubmissionPollTimeout, config.WorkerKey.PersistSubmissionsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload SubmissionPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		w.persist(ctx, &payload, result[1])
	}
}

func (w *SubmissionWorker) persist(ctx context.Context, p *SubmissionPayload, raw string) {
	examID, err := uuid.Parse(p.ExamID)
	if err != nil {
		w.log.Error().Str("exam_id", p.ExamID).Msg("Dropping submission with invalid UUID")
		return
	}

	if err := w.repo.Insert(ctx, examID, p.CandidateID, &p.Envelope, p.Delivered); err != nil {
		w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Insert failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw)
		// Back off a little if the DB is down hard.
		time.Sleep(2 * time.Second)
		return
	}

	w.log.Info().
		Int("candidate_id", p.CandidateID).
		Str("exam_id", p.ExamID).
		Int("answers", len(p.Envelope.Answers)).
		Msg("Submission persisted")

	if !p.Delivered {
		w.retryDelivery(ctx, examID, p)
	}
}

// retryDelivery gives an undelivered envelope a second shot at the scoring
// service now that the row is safely persisted. Failures stay undelivered;
// the row keeps delivered = FALSE for an operator sweep.
func (w *SubmissionWorker) retryDelivery(ctx context.Context, examID uuid.UUID, p *SubmissionPayload) {
	if w.scoring == nil || !w.scoring.Enabled() {
		return
	}

	delivered, err := w.scoring.Deliver(ctx, &p.Envelope)
	if err != nil || !delivered {
		w.log.Warn().Err(err).
			Int("candidate_id", p.CandidateID).
			Msg("Scoring retry failed, submission stays undelivered")
		return
	}

	if err := w.repo.MarkDelivered(ctx, examID, p.CandidateID); err != nil {
		w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Failed to flag delivery")
		return
	}
	w.log.Info().Int("candidate_id", p.CandidateID).Msg("Scoring delivery retried successfully")
}
