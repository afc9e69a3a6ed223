package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionTypeValid(t *testing.T) {
	for _, qt := range AllQuestionTypes {
		assert.True(t, qt.Valid(), "catalog member %q", qt)
	}

	assert.False(t, QuestionType("").Valid())
	assert.False(t, QuestionType("singleselect").Valid(), "wire tags are case sensitive")
	assert.False(t, QuestionType("Ranking").Valid())
}

func TestExamPayloadValidate(t *testing.T) {
	payload := ExamPayload{
		ExamID: uuid.New(),
		Questions: []Question{
			{Tid: "T1", Type: QuestionTypeSingleSelect},
			{Tid: "T2", Type: QuestionTypeEssay},
		},
	}
	require.NoError(t, payload.Validate())

	empty := ExamPayload{ExamID: uuid.New()}
	assert.ErrorContains(t, empty.Validate(), "no questions")

	payload.Questions[1].Type = "Esssay"
	err := payload.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, `"T2"`)
	assert.ErrorContains(t, err, "unknown type")
}
