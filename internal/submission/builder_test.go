package submission

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verisant/proctor-backend/internal/model"
)

var buildTime = time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

func singleQuestion(qtype model.QuestionType, options []string) []model.Question {
	return []model.Question{{
		ID:      "q-1",
		Tid:     "t-9",
		Title:   "Sample",
		Type:    qtype,
		Options: options,
		Marks:   5,
		Skills:  []string{"go"},
	}}
}

func buildOne(t *testing.T, qtype model.QuestionType, options []string, response any) model.SubmissionRecord {
	t.Helper()
	env := Build(singleQuestion(qtype, options), map[int]any{0: response}, []int{30}, model.CandidateInfo{Name: "Ada"}, buildTime)
	require.Len(t, env.Answers, 1)
	return env.Answers[0]
}

func TestSingleSelectOptionIndex(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeSingleSelect, []string{"A", "B", "C"}, "B")
	assert.Equal(t, "Option 2", rec.Selopt)
}

func TestMultipleSelectJoinsMatches(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeMultipleSelect, []string{"A", "B", "C"}, []string{"A", "C"})
	assert.Equal(t, "Option 1,Option 3", rec.Selopt)
}

func TestUnmatchedSelectionsDropSilently(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeSingleSelect, []string{"A", "B"}, []string{"Z", "B"})
	assert.Equal(t, "Option 2", rec.Selopt)

	rec = buildOne(t, model.QuestionTypeSingleSelect, []string{"A", "B"}, "Z")
	assert.Equal(t, "", rec.Selopt)
}

func TestEssayPassesThrough(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeEssay, nil, "hello world")
	assert.Equal(t, "hello world", rec.Selopt)
}

func TestCodingConcatenatesArray(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeCoding, nil, []string{"func main() {", "}"})
	assert.Equal(t, "func main() {}", rec.Selopt)
}

func TestTrueFalseCommaJoin(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeTrueFalse, nil, []any{true})
	assert.Equal(t, "true", rec.Selopt)

	rec = buildOne(t, model.QuestionTypeTrueFalse, nil, true)
	assert.Equal(t, "true", rec.Selopt)
}

func TestFillupCommaJoin(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeFillup, nil, []string{"alpha", "beta"})
	assert.Equal(t, "alpha,beta", rec.Selopt)
}

func TestNilResponseEmptySelopt(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeEssay, nil, nil)
	assert.Equal(t, "", rec.Selopt)
}

func TestMatchFollowingEncodesMap(t *testing.T) {
	rec := buildOne(t, model.QuestionTypeMatchFollowing, []string{"A", "B"}, map[string]string{"left": "right"})
	// Structured responses never match an option, so the default
	// formatter drops them.
	assert.Equal(t, "", rec.Selopt)
}

func TestTimeTakenDefaults(t *testing.T) {
	questions := singleQuestion(model.QuestionTypeEssay, nil)

	env := Build(questions, map[int]any{0: "x"}, []int{-4}, model.CandidateInfo{}, buildTime)
	assert.Equal(t, 0, env.Answers[0].TimeTaken, "negative slot normalizes to 0")

	env = Build(questions, map[int]any{0: "x"}, nil, model.CandidateInfo{}, buildTime)
	assert.Equal(t, 0, env.Answers[0].TimeTaken, "missing slot defaults to 0")

	env = Build(questions, map[int]any{0: "x"}, []int{42}, model.CandidateInfo{}, buildTime)
	assert.Equal(t, 42, env.Answers[0].TimeTaken)
}

func TestEnvelopeWireFormat(t *testing.T) {
	questions := singleQuestion(model.QuestionTypeSingleSelect, []string{"A", "B"})
	env := Build(questions, map[int]any{0: "A"}, []int{10}, model.CandidateInfo{Name: "Ada Lovelace", Email: "ada@example.com"}, buildTime)

	assert.Equal(t, "2026-03-14 15:04:05", env.SubmissionDateTime)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// Candidate fields are spread at the top level.
	assert.Equal(t, "Ada Lovelace", decoded["name"])
	assert.Contains(t, decoded, "answers")
	assert.Contains(t, decoded, "submissionDateTime")

	answers := decoded["answers"].([]any)
	first := answers[0].(map[string]any)
	for _, key := range []string{"Tid", "Ttit", "type", "QID", "Selopt", "TimeTaken", "Skills"} {
		assert.Contains(t, first, key)
	}
}

func TestRecordOrderFollowsCatalog(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: model.QuestionTypeEssay},
		{ID: "q2", Type: model.QuestionTypeEssay},
		{ID: "q3", Type: model.QuestionTypeEssay},
	}
	env := Build(questions, map[int]any{1: "middle"}, []int{1, 2, 3}, model.CandidateInfo{}, buildTime)

	require.Len(t, env.Answers, 3)
	assert.Equal(t, "q1", env.Answers[0].QID)
	assert.Equal(t, "middle", env.Answers[1].Selopt)
	assert.Equal(t, 3, env.Answers[2].TimeTaken)
}
