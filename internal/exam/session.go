package exam

import (
	"time"
)

// QuestionRuntimeState tracks the per-question flags the engine maintains
// while a candidate navigates the exam.
type QuestionRuntimeState struct {
	Visited         bool `json:"visited"`
	Answered        bool `json:"answered"`
	MarkedForReview bool `json:"marked_for_review"`
}

// Session is the per-candidate exam session state machine. It owns the
// current question pointer, the response values, the runtime flags and the
// per-question dwell time. It is not safe for concurrent use; each
// candidate connection drives exactly one Session.
type Session struct {
	current   int
	responses map[int]any
	states    []QuestionRuntimeState
	timeSpent []int // seconds, one slot per question index

	now       func() time.Time
	lastNavAt time.Time
}

// NewSession creates a session for a catalog of questionCount questions.
// The first question starts visited; everything else starts untouched.
// now is the reference clock for dwell tracking (time.Now in production).
func NewSession(questionCount int, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{
		responses: make(map[int]any),
		states:    make([]QuestionRuntimeState, questionCount),
		timeSpent: make([]int, questionCount),
		now:       now,
	}
	if questionCount > 0 {
		s.states[0].Visited = true
	}
	s.lastNavAt = now()
	return s
}

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.states) }

// CurrentIndex returns the active question index.
func (s *Session) CurrentIndex() int { return s.current }

// Response returns the stored response for index i, or nil.
func (s *Session) Response(i int) any { return s.responses[i] }

// Responses returns the response map keyed by question index. The caller
// must not mutate it.
func (s *Session) Responses() map[int]any { return s.responses }

// State returns the runtime flags for index i.
func (s *Session) State(i int) QuestionRuntimeState { return s.states[i] }

// States returns the runtime flags for every question, in index order.
func (s *Session) States() []QuestionRuntimeState { return s.states }

// TimeSpent returns the accumulated dwell seconds per question index.
func (s *Session) TimeSpent() []int { return s.timeSpent }

// SaveResponse stores value as the response for index i, marks the
// question visited, and recomputes its answered flag. The caller
// guarantees i is a valid index.
//
// Answered follows the frontend's historical emptiness rule: only nil and
// the empty string count as unanswered, so an empty slice or map is
// classified as answered.
func (s *Session) SaveResponse(i int, value any) {
	s.responses[i] = value
	s.states[i].Answered = isAnswered(value)
	s.states[i].Visited = true
}

// ClearResponse removes the response for index i and clears its answered
// flag. Visited and review flags are untouched.
func (s *Session) ClearResponse(i int) {
	delete(s.responses, i)
	s.states[i].Answered = false
}

// MarkForReview toggles the review flag for index i and forces visited.
func (s *Session) MarkForReview(i int) {
	s.states[i].MarkedForReview = !s.states[i].MarkedForReview
	s.states[i].Visited = true
}

// GoToQuestion moves the pointer to index i. Out-of-range indices are a
// no-op. On every pointer change the dwell since the last navigation is
// credited to the question being left, not the one being entered.
func (s *Session) GoToQuestion(i int) {
	if i < 0 || i >= len(s.states) {
		return
	}
	s.creditDwell(s.current)
	s.current = i
	s.states[i].Visited = true
}

// FlushTime credits the pending dwell to the current question. Called
// once right before the submission is built so the active question's slot
// includes its final stretch.
func (s *Session) FlushTime() {
	s.creditDwell(s.current)
}

// creditDwell adds the elapsed wall-clock since the last navigation event
// to the slot for index i and resets the reference clock. Negative slot
// values (clock skew on first render) are normalized to 0 before the
// increment rather than propagated.
func (s *Session) creditDwell(i int) {
	nowT := s.now()
	elapsed := int(nowT.Sub(s.lastNavAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	if s.timeSpent[i] < 0 {
		s.timeSpent[i] = 0
	}
	s.timeSpent[i] += elapsed
	s.lastNavAt = nowT
}

// isAnswered implements the preserved emptiness rule: nil and "" are
// unanswered, everything else (including empty slices and maps) counts.
func isAnswered(v any) bool {
	if v == nil {
		return false
	}
	if str, ok := v.(string); ok && str == "" {
		return false
	}
	return true
}
