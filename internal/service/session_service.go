package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/config"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/repository"
	"github.com/verisant/proctor-backend/internal/scoring"
	"github.com/verisant/proctor-backend/internal/storage"
	"github.com/verisant/proctor-backend/internal/submission"
	"github.com/verisant/proctor-backend/internal/worker"
)

var (
	// ErrExamCompleted means the candidate already submitted this exam.
	ErrExamCompleted = errors.New("exam is already completed")
	// ErrIntegrityNotGranted means camera or fullscreen permission was
	// refused at exam start.
	ErrIntegrityNotGranted = errors.New("integrity preconditions not granted")
	// ErrNoActiveSession means the candidate never started this exam.
	ErrNoActiveSession = errors.New("no active exam session")
)

// SessionService owns the server-side lifecycle of a candidate's exam
// attempt: starting it, tracking remaining time, queueing violations, and
// finalizing the submission. The live per-connection state machine lives
// in ExamRuntime; this service is the shared, storage-facing half.
type SessionService struct {
	examSvc       *ExamService
	sessionRepo   *repository.ExamSessionRepository
	candidateRepo *repository.CandidateRepository
	scoring       *scoring.Client
	store         storage.Store
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	examSvc *ExamService,
	sessionRepo *repository.ExamSessionRepository,
	candidateRepo *repository.CandidateRepository,
	scoringClient *scoring.Client,
	store storage.Store,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		examSvc:       examSvc,
		sessionRepo:   sessionRepo,
		candidateRepo: candidateRepo,
		scoring:       scoringClient,
		store:         store,
		rdb:           rdb,
		log:           log.With().Str("component", "session_service").Logger(),
	}
}

// StartExam validates integrity preconditions and creates (or resumes) the
// candidate's session for the exam. Creation is idempotent: a second start
// on another device or after a refresh resumes the existing session with
// the original start time.
func (s *SessionService) StartExam(ctx context.Context, examID uuid.UUID, candidateID int, req model.StartExamRequest) (*model.ExamSession, *model.ExamPayload, error) {
	if s.IsCompleted(ctx, examID, candidateID) {
		return nil, nil, ErrExamCompleted
	}

	payload, err := s.examSvc.GetExamPayload(ctx, examID)
	if err != nil {
		return nil, nil, err
	}

	if !req.FullscreenGranted || (payload.CameraRequired && !req.CameraGranted) {
		return nil, nil, ErrIntegrityNotGranted
	}

	existing, err := s.sessionRepo.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("check existing session: %w", err)
	}

	if existing != nil {
		if existing.Status == model.SessionStatusSubmitted {
			return nil, nil, ErrExamCompleted
		}
		// Resume: make sure Redis has the start time again in case it
		// was evicted between the first start and this one.
		_ = s.rdb.Set(ctx, config.CacheKey.CandidateExamStartKey(examID.String(), candidateID), existing.StartedAt.Unix(), 0)
		s.persistSessionContext(ctx, candidateID, payload)
		return existing, payload, nil
	}

	session := &model.ExamSession{
		ExamID:      examID,
		CandidateID: candidateID,
		Status:      model.SessionStatusInProgress,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start from a second device won the insert race.
			existing, fetchErr := s.sessionRepo.GetByExamAndCandidate(ctx, examID, candidateID)
			if fetchErr != nil {
				return nil, nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			s.persistSessionContext(ctx, candidateID, payload)
			return existing, payload, nil
		}
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	// session.StartedAt comes back from the insert, so DB and Redis hold
	// the same timestamp.
	startKey := config.CacheKey.CandidateExamStartKey(session.ExamID.String(), session.CandidateID)
	if err := s.rdb.Set(ctx, startKey, session.StartedAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache session start time")
	}

	s.persistSessionContext(ctx, candidateID, payload)

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Msg("Exam session started")
	return session, payload, nil
}

// persistSessionContext stores the candidate info and exam config in the
// session store so a reconnecting client can rebuild its context without
// another full payload round trip.
func (s *SessionService) persistSessionContext(ctx context.Context, candidateID int, payload *model.ExamPayload) {
	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		s.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Failed to load candidate for session context")
		return
	}

	info := model.CandidateInfo{
		Name:        candidate.Name,
		Email:       candidate.Email,
		CandidateID: strconv.Itoa(candidate.ID),
	}
	if raw, err := json.Marshal(info); err == nil {
		_ = s.store.Set(ctx, storage.CandidateInfoKey(candidateID), string(raw), 0)
	}

	cfg := map[string]any{
		"exam_id":          payload.ExamID,
		"title":            payload.Title,
		"duration_minutes": payload.DurationMinutes,
		"camera_required":  payload.CameraRequired,
	}
	if raw, err := json.Marshal(cfg); err == nil {
		_ = s.store.Set(ctx, storage.ExamConfigKey(candidateID), string(raw), 0)
	}
}

// CandidateInfo returns the candidate identity attached to the running
// session, falling back to PostgreSQL when the store copy is missing.
func (s *SessionService) CandidateInfo(ctx context.Context, candidateID int) (model.CandidateInfo, error) {
	raw, err := s.store.Get(ctx, storage.CandidateInfoKey(candidateID))
	if err == nil {
		var info model.CandidateInfo
		if jsonErr := json.Unmarshal([]byte(raw), &info); jsonErr == nil {
			return info, nil
		}
	}

	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		return model.CandidateInfo{}, fmt.Errorf("load candidate: %w", err)
	}
	return model.CandidateInfo{
		Name:        candidate.Name,
		Email:       candidate.Email,
		CandidateID: strconv.Itoa(candidate.ID),
	}, nil
}

// VerifyActiveSession checks that the candidate has an IN_PROGRESS session
// for the exam.
func (s *SessionService) VerifyActiveSession(ctx context.Context, examID uuid.UUID, candidateID int) error {
	sess, err := s.sessionRepo.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if sess.Status == model.SessionStatusSubmitted {
		return ErrExamCompleted
	}
	return nil
}

// RemainingTime computes how much exam time the candidate has left from
// the cached start time and duration. On a cache miss the start time is
// refetched from PostgreSQL and healed back into Redis.
func (s *SessionService) RemainingTime(ctx context.Context, examID uuid.UUID, candidateID int) (time.Duration, error) {
	durationMinutes, err := s.examSvc.GetDurationMinutes(ctx, examID)
	if err != nil {
		return 0, err
	}

	var startUnix int64
	startKey := config.CacheKey.CandidateExamStartKey(examID.String(), candidateID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		sess, dbErr := s.sessionRepo.GetByExamAndCandidate(ctx, examID, candidateID)
		if dbErr != nil {
			return 0, fmt.Errorf("session not found in cache or db: %w", dbErr)
		}
		startUnix = sess.StartedAt.Unix()
		// Self-heal so the next tick is a cache hit again.
		_ = s.rdb.Set(ctx, startKey, startUnix, 0)
	case err != nil:
		return 0, fmt.Errorf("redis error getting start time: %w", err)
	default:
		startUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid start time format in cache: %w", err)
		}
	}

	endTime := time.Unix(startUnix, 0).Add(time.Duration(durationMinutes) * time.Minute)
	remaining := time.Until(endTime)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// QueueViolation pushes a detected violation onto the persistence queue
// and publishes it on the exam's live channel for proctor dashboards. The
// exam stream never waits on PostgreSQL.
func (s *SessionService) QueueViolation(ctx context.Context, examID uuid.UUID, candidateID int, v model.SecurityViolation) {
	payload := worker.ViolationPayload{
		CandidateID: candidateID,
		ExamID:      examID.String(),
		Kind:        string(v.Kind),
		Timestamp:   v.Timestamp,
		Details:     v.Details,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode violation payload")
		return
	}

	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, raw)
	pipe.Publish(ctx, config.CacheKey.ExamViolationChannel(examID.String()), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error().Err(err).
			Str("kind", string(v.Kind)).
			Int("candidate_id", candidateID).
			Msg("Failed to queue violation")
	}
}

// Submit finalizes the candidate's attempt: builds the envelope from the
// engine state, attempts synchronous delivery to the scoring service,
// queues the envelope for persistence, and marks the session submitted.
// Submit is idempotent at the session level; a second call fails with
// ErrExamCompleted via VerifyActiveSession in the handler.
func (s *SessionService) Submit(
	ctx context.Context,
	examID uuid.UUID,
	candidateID int,
	questions []model.Question,
	responses map[int]any,
	timeSpent []int,
) (*model.SubmissionEnvelope, error) {
	info, err := s.CandidateInfo(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	env := submission.Build(questions, responses, timeSpent, info, time.Now())

	delivered, err := s.scoring.Deliver(ctx, &env)
	if err != nil {
		s.log.Warn().Err(err).
			Int("candidate_id", candidateID).
			Msg("Scoring delivery failed, envelope queued as undelivered")
	}

	qp := worker.SubmissionPayload{
		CandidateID: candidateID,
		ExamID:      examID.String(),
		Delivered:   delivered,
		Envelope:    env,
	}
	raw, err := json.Marshal(qp)
	if err != nil {
		return nil, fmt.Errorf("encode submission payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("queue submission: %w", err)
	}

	if err := s.sessionRepo.MarkSubmitted(ctx, examID, candidateID, time.Now()); err != nil {
		return nil, fmt.Errorf("mark submitted: %w", err)
	}

	_ = s.store.Set(ctx, storage.ExamCompletedKey(candidateID, examID.String()), "true", 0)
	_ = s.rdb.Del(ctx, config.CacheKey.CandidateExamStartKey(examID.String(), candidateID))

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Bool("delivered", delivered).
		Msg("Exam submitted")
	return &env, nil
}

// ListSessions returns every attempt of one exam, newest first.
func (s *SessionService) ListSessions(ctx context.Context, examID uuid.UUID) ([]model.ExamSession, error) {
	return s.sessionRepo.ListByExam(ctx, examID)
}

// IsCompleted reports whether the candidate's completion marker for the
// exam is set. It short-circuits repeat starts without a round trip to
// PostgreSQL; an absent marker falls through to the session row check.
func (s *SessionService) IsCompleted(ctx context.Context, examID uuid.UUID, candidateID int) bool {
	val, err := s.store.Get(ctx, storage.ExamCompletedKey(candidateID, examID.String()))
	return err == nil && val == "true"
}
