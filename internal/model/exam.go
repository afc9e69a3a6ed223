package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusCompleted ExamStatus = "COMPLETED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam is a proctored exam definition.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	CameraRequired  bool       `json:"camera_required"`
	QuestionCount   int        `json:"question_count"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ExamPayload is the Redis-cached payload handed to a candidate at exam
// start: the full ordered question catalog plus timing and integrity
// requirements. No scoring data is ever part of it.
type ExamPayload struct {
	ExamID          uuid.UUID  `json:"exam_id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	CameraRequired  bool       `json:"camera_required"`
	Questions       []Question `json:"questions"`
}

// Validate checks the payload is servable: at least one question, every
// question of a known type. An exam that fails here must not reach the
// cache.
func (p *ExamPayload) Validate() error {
	if len(p.Questions) == 0 {
		return fmt.Errorf("exam %s has no questions", p.ExamID)
	}
	for i := range p.Questions {
		if !p.Questions[i].Type.Valid() {
			return fmt.Errorf("exam %s question %q has unknown type %q", p.ExamID, p.Questions[i].Tid, p.Questions[i].Type)
		}
	}
	return nil
}

// StartExamRequest is the payload for a candidate starting an exam.
// The frontend asserts that the integrity preconditions were granted;
// the exam does not start without them.
type StartExamRequest struct {
	CameraGranted     bool `json:"camera_granted"`
	FullscreenGranted bool `json:"fullscreen_granted"`
}
