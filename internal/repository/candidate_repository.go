package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verisant/proctor-backend/internal/model"
)

// CandidateRepository handles candidate account data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetByEmail retrieves a candidate by email.
func (r *CandidateRepository) GetByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, access_code_hash, created_at
		 FROM candidates
		 WHERE email = $1`, email,
	).Scan(&c.ID, &c.Name, &c.Email, &c.AccessCodeHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id int) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, access_code_hash, created_at
		 FROM candidates
		 WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.AccessCodeHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, access_code_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.Email, c.AccessCodeHash,
	).Scan(&c.ID, &c.CreatedAt)
}

// OperatorRepository handles proctoring staff data access.
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// GetByEmail retrieves an operator by email.
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	o := &model.Operator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM operators
		 WHERE email = $1`, email,
	).Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts a new operator.
func (r *OperatorRepository) Create(ctx context.Context, o *model.Operator) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO operators (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		o.Name, o.Email, o.PasswordHash,
	).Scan(&o.ID, &o.CreatedAt)
}
