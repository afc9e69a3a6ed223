package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a now func that advances only when stepped.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNewSessionInitialFlags(t *testing.T) {
	s := NewSession(5, newFakeClock().now)

	for i, st := range s.States() {
		assert.Equal(t, i == 0, st.Visited, "visited for index %d", i)
		assert.False(t, st.Answered, "answered for index %d", i)
		assert.False(t, st.MarkedForReview, "marked for index %d", i)
	}
	assert.Equal(t, 0, s.CurrentIndex())
}

func TestSaveResponseEmptinessRule(t *testing.T) {
	s := NewSession(3, newFakeClock().now)

	s.SaveResponse(1, "")
	assert.Equal(t, StatusNotAnswered, DeriveStatus(s.State(1)), "empty string never counts as answered")
	assert.True(t, s.State(1).Visited)

	s.SaveResponse(1, "x")
	assert.Equal(t, StatusAnswered, DeriveStatus(s.State(1)))

	// Historical quirk: empty collections count as answered.
	s.SaveResponse(2, []string{})
	assert.Equal(t, StatusAnswered, DeriveStatus(s.State(2)))
	s.SaveResponse(2, map[string]string{})
	assert.Equal(t, StatusAnswered, DeriveStatus(s.State(2)))

	s.SaveResponse(0, nil)
	assert.Equal(t, StatusNotAnswered, DeriveStatus(s.State(0)))
}

func TestClearResponse(t *testing.T) {
	s := NewSession(2, newFakeClock().now)

	s.SaveResponse(1, "answer")
	s.MarkForReview(1)
	s.ClearResponse(1)

	st := s.State(1)
	assert.False(t, st.Answered)
	assert.True(t, st.Visited, "clear must not reset visited")
	assert.True(t, st.MarkedForReview, "clear must not reset review flag")
	assert.Nil(t, s.Response(1))
}

func TestMarkForReviewTogglePair(t *testing.T) {
	s := NewSession(3, newFakeClock().now)

	s.MarkForReview(2)
	require.True(t, s.State(2).MarkedForReview)
	require.True(t, s.State(2).Visited)

	s.MarkForReview(2)
	assert.False(t, s.State(2).MarkedForReview, "double toggle restores original value")
	assert.True(t, s.State(2).Visited, "visited stays true after either toggle")
}

func TestGoToQuestionBounds(t *testing.T) {
	s := NewSession(3, newFakeClock().now)

	s.GoToQuestion(2)
	assert.Equal(t, 2, s.CurrentIndex())
	assert.True(t, s.State(2).Visited)

	s.GoToQuestion(-1)
	assert.Equal(t, 2, s.CurrentIndex(), "negative index is a no-op")
	s.GoToQuestion(3)
	assert.Equal(t, 2, s.CurrentIndex(), "out-of-range index is a no-op")
}

func TestDwellCreditedToPreviousQuestion(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(6, clock.now)

	s.GoToQuestion(2)
	clock.advance(12 * time.Second)
	s.GoToQuestion(5)

	assert.Equal(t, 12, s.TimeSpent()[2], "dwell goes to the slot being left")
	assert.Equal(t, 0, s.TimeSpent()[5], "the entered slot is not credited")
}

func TestFlushTimeCreditsCurrentQuestion(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(3, clock.now)

	s.GoToQuestion(1)
	clock.advance(7 * time.Second)
	s.FlushTime()

	assert.Equal(t, 7, s.TimeSpent()[1])

	// A second flush with no elapsed time must not double-credit.
	s.FlushTime()
	assert.Equal(t, 7, s.TimeSpent()[1])
}

func TestDwellNeverGoesNegative(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(2, clock.now)

	// Simulate a clock moving backwards between navigation events.
	clock.advance(-30 * time.Second)
	s.GoToQuestion(1)

	assert.Equal(t, 0, s.TimeSpent()[0], "negative elapsed clamps to zero")
}

func TestDwellAccumulatesAcrossRevisits(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(3, clock.now)

	clock.advance(5 * time.Second)
	s.GoToQuestion(1)
	clock.advance(3 * time.Second)
	s.GoToQuestion(0)
	clock.advance(4 * time.Second)
	s.GoToQuestion(1)

	assert.Equal(t, 5+4, s.TimeSpent()[0])
	assert.Equal(t, 3, s.TimeSpent()[1])
}
