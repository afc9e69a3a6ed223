package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verisant/proctor-backend/internal/model"
)

// SubmissionRepository persists finalized submission envelopes and their
// per-question answer rows.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Insert stores the envelope and its answer rows in one transaction.
func (r *SubmissionRepository) Insert(ctx context.Context, examID uuid.UUID, candidateID int, env *model.SubmissionEnvelope, delivered bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	var submissionID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO submissions (exam_id, candidate_id, envelope, delivered, submitted_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5)
		 RETURNING id`,
		examID, candidateID, raw, delivered, time.Now(),
	).Scan(&submissionID)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	rows := make([][]interface{}, 0, len(env.Answers))
	for _, a := range env.Answers {
		rows = append(rows, []interface{}{
			submissionID, a.QID, a.Tid, a.Type, a.Selopt, a.TimeTaken,
		})
	}
	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"submission_answers"},
		[]string{"submission_id", "question_id", "tid", "question_type", "selected", "time_taken"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy answers: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkDelivered flips the delivered flag after a successful retry.
func (r *SubmissionRepository) MarkDelivered(ctx context.Context, examID uuid.UUID, candidateID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions SET delivered = TRUE
		 WHERE exam_id = $1 AND candidate_id = $2`,
		examID, candidateID)
	return err
}
