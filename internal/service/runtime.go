package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/exam"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/proctor"
	"github.com/verisant/proctor-backend/internal/schedule"
)

// RuntimeEvents is what a runtime pushes back to the candidate's client.
// The WebSocket handler implements it by writing frames; tests implement
// it with recording fakes.
type RuntimeEvents interface {
	OnAlert(a proctor.Alert)
	OnCountdown(remaining time.Duration)
	OnTimeExpired()
}

// ExamRuntime is the per-connection exam engine: one candidate, one
// session state machine, one violation monitor, one alert presenter, one
// countdown. It is created when the candidate's WebSocket attaches and
// torn down when the connection closes or the exam is submitted.
//
// All mutating methods must be called from the single connection read
// loop; the countdown and alert timers only touch the concurrency-safe
// Presenter and the events sink.
type ExamRuntime struct {
	ExamID      uuid.UUID
	CandidateID int
	Questions   []model.Question

	Session   *exam.Session
	Monitor   *proctor.Monitor
	Presenter *proctor.Presenter

	svc       *SessionService
	events    RuntimeEvents
	countdown *schedule.Repeater
	deadline  time.Time
	expired   bool
	log       zerolog.Logger
}

// NewRuntime assembles a runtime for a started session. remaining is the
// time budget left on the attempt (RemainingTime at attach), fs is the
// connection-backed fullscreen controller, sched drives the alert
// dismissal timers.
func (s *SessionService) NewRuntime(
	examID uuid.UUID,
	candidateID int,
	payload *model.ExamPayload,
	remaining time.Duration,
	fs proctor.FullscreenController,
	events RuntimeEvents,
	sched schedule.Scheduler,
	log zerolog.Logger,
) *ExamRuntime {
	rt := &ExamRuntime{
		ExamID:      examID,
		CandidateID: candidateID,
		Questions:   payload.Questions,
		Session:     exam.NewSession(len(payload.Questions), nil),
		svc:         s,
		events:      events,
		countdown:   schedule.NewRepeater(time.Second),
		deadline:    time.Now().Add(remaining),
		log: log.With().
			Str("component", "exam_runtime").
			Str("exam_id", examID.String()).
			Int("candidate_id", candidateID).
			Logger(),
	}

	rt.Monitor = proctor.NewMonitor(fs, rt.log, nil)
	rt.Presenter = proctor.NewPresenter(sched, rt.Monitor.RequestFullscreen, events.OnAlert)

	// Every recorded violation goes two ways: onto the persistence queue
	// and into the on-screen alert policy.
	rt.Monitor.SetSink(func(v model.SecurityViolation) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.QueueViolation(ctx, examID, candidateID, v)
		rt.Presenter.Observe(v)
	})

	return rt
}

// StartCountdown begins the 1-second countdown ticks. When the deadline
// passes the runtime fires OnTimeExpired exactly once and stops ticking;
// the connection handler reacts by forcing submission.
func (rt *ExamRuntime) StartCountdown() {
	rt.countdown.Start(func() {
		remaining := time.Until(rt.deadline)
		if remaining <= 0 {
			if !rt.expired {
				rt.expired = true
				rt.events.OnCountdown(0)
				rt.events.OnTimeExpired()
			}
			return
		}
		rt.events.OnCountdown(remaining.Round(time.Second))
	})
}

// StopCountdown halts the countdown ticks.
func (rt *ExamRuntime) StopCountdown() {
	rt.countdown.Stop()
}

// Submit finalizes the attempt from the runtime's engine state. The
// pending dwell is flushed so the active question's slot includes its
// final stretch, fullscreen is exited through the benign path, and the
// countdown stops.
func (rt *ExamRuntime) Submit(ctx context.Context) (*model.SubmissionEnvelope, error) {
	rt.StopCountdown()
	rt.Session.FlushTime()

	env, err := rt.svc.Submit(ctx, rt.ExamID, rt.CandidateID,
		rt.Questions, rt.Session.Responses(), rt.Session.TimeSpent())
	if err != nil {
		return nil, err
	}

	rt.Monitor.ExitFullscreen()
	return env, nil
}

// Close releases the runtime's timers. Safe to call more than once.
func (rt *ExamRuntime) Close() {
	rt.StopCountdown()
	rt.Presenter.Reset()
}
