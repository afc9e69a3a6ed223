package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/verisant/proctor-backend/internal/repository"
)

// MonitorService orchestrates live proctoring overview logic.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	sessionRepo *repository.ExamSessionRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, sessionRepo *repository.ExamSessionRepository) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, sessionRepo: sessionRepo}
}

// ExamSnapshot holds the per-candidate violation counts and submission
// status for every session of one exam.
type ExamSnapshot struct {
	ViolationCounts map[int]int64 // candidate_id -> violation count
	SubmittedCounts map[int]int64 // candidate_id -> submitted answer count
	TotalViolations int64
}

// GetExamSnapshot returns violation and submission counts for an exam.
// The two fetches are independent queries and run concurrently; violation
// counts are best-effort, submission counts are critical.
func (s *MonitorService) GetExamSnapshot(ctx context.Context, examID uuid.UUID) (*ExamSnapshot, error) {
	snapshot := &ExamSnapshot{
		ViolationCounts: make(map[int]int64),
		SubmittedCounts: make(map[int]int64),
	}

	var (
		violationCounts map[int]int64
		submittedCounts map[int]int64
		violationErr    error
		submittedErr    error
		wg              sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		violationCounts, violationErr = s.monitorRepo.GetViolationCounts(ctx, examID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		submittedCounts, submittedErr = s.monitorRepo.GetSubmittedCounts(ctx, examID)
	}()

	wg.Wait()

	if submittedErr != nil {
		return nil, submittedErr
	}
	if submittedCounts != nil {
		snapshot.SubmittedCounts = submittedCounts
	}

	if violationErr == nil && violationCounts != nil {
		snapshot.ViolationCounts = violationCounts
		for _, count := range violationCounts {
			snapshot.TotalViolations += count
		}
	}

	return snapshot, nil
}
