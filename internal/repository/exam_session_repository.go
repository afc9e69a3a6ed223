package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verisant/proctor-backend/internal/model"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// GetByExamAndCandidate retrieves a session for an exam-candidate pair.
func (r *ExamSessionRepository) GetByExamAndCandidate(ctx context.Context, examID uuid.UUID, candidateID int) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, candidate_id, started_at, submitted_at, status
		 FROM exam_sessions
		 WHERE exam_id = $1 AND candidate_id = $2`, examID, candidateID,
	).Scan(&s.ID, &s.ExamID, &s.CandidateID, &s.StartedAt, &s.SubmittedAt, &s.Status)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new exam session (the candidate starts the exam).
// ON CONFLICT DO NOTHING makes concurrent starts surface as pgx.ErrNoRows.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, candidate_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, candidate_id) DO NOTHING
		 RETURNING id, started_at`,
		s.ExamID, s.CandidateID, model.SessionStatusInProgress,
	).Scan(&s.ID, &s.StartedAt)
}

// MarkSubmitted records the final submission time on a session.
func (r *ExamSessionRepository) MarkSubmitted(ctx context.Context, examID uuid.UUID, candidateID int, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, submitted_at = $2
		 WHERE exam_id = $3 AND candidate_id = $4`,
		model.SessionStatusSubmitted, at, examID, candidateID)
	return err
}

// ListByExam retrieves all sessions for an exam, newest first.
func (r *ExamSessionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, candidate_id, started_at, submitted_at, status
		 FROM exam_sessions
		 WHERE exam_id = $1
		 ORDER BY started_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.ExamID, &s.CandidateID, &s.StartedAt, &s.SubmittedAt, &s.Status); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
