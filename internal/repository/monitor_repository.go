package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MonitorRepository provides aggregate reads for the live proctor view.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// GetViolationCounts returns candidate_id → violation count for an exam.
func (r *MonitorRepository) GetViolationCounts(ctx context.Context, examID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, COUNT(*)
		 FROM exam_violations
		 WHERE exam_id = $1
		 GROUP BY candidate_id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var candidateID int
		var count int64
		if err := rows.Scan(&candidateID, &count); err != nil {
			return nil, err
		}
		counts[candidateID] = count
	}
	return counts, rows.Err()
}

// GetSubmittedCounts returns candidate_id → 1 for candidates who have
// submitted the exam.
func (r *MonitorRepository) GetSubmittedCounts(ctx context.Context, examID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, COUNT(*)
		 FROM submissions
		 WHERE exam_id = $1
		 GROUP BY candidate_id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var candidateID int
		var count int64
		if err := rows.Scan(&candidateID, &count); err != nil {
			return nil, err
		}
		counts[candidateID] = count
	}
	return counts, rows.Err()
}
