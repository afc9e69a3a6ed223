package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/config"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/repository"
)

// ErrExamNotAvailable is returned when an exam is not published or has no
// cached payload.
var ErrExamNotAvailable = errors.New("exam is not available")

// ExamService owns the exam catalog and its Redis payload cache.
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam definition.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListAvailable returns the published exams candidates may take.
func (s *ExamService) ListAvailable(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.ListPublished(ctx)
}

// WarmExamCache loads one exam's catalog into Redis: the candidate payload
// under the payload key and the duration under its own key so the
// countdown path never touches PostgreSQL.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.examRepo.GetQuestions(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("get questions: %w", err)
	}

	payload := model.ExamPayload{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		CameraRequired:  exam.CameraRequired,
		Questions:       questions,
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(exam.ID.String()), raw, 0)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(exam.ID.String()), strconv.Itoa(exam.DurationMinutes), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Exam cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on application
// startup, before traffic arrives, so no candidate hits a cold cache.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Prewarm failed for exam")
		}
	}
	return nil
}

// GetExamPayload returns the cached candidate-facing payload.
func (s *ExamService) GetExamPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.ExamPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &payload, nil
}

// GetDurationMinutes returns the cached exam duration.
func (s *ExamService) GetDurationMinutes(ctx context.Context, examID uuid.UUID) (int, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.ExamDurationKey(examID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrExamNotAvailable
		}
		return 0, fmt.Errorf("get duration: %w", err)
	}
	minutes, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format in redis: %w", err)
	}
	return minutes, nil
}
