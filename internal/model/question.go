package model

// QuestionType is the closed set of question variants the engine understands.
// The string values are wire-level tags shared with the exam frontend and the
// scoring service, so they are not idiomatic Go names on purpose.
type QuestionType string

const (
	QuestionTypeSingleSelect   QuestionType = "SingleSelect"
	QuestionTypeMultipleSelect QuestionType = "MultipleSelect"
	QuestionTypeEssay          QuestionType = "Essay"
	QuestionTypeFillup         QuestionType = "Fillup"
	QuestionTypeCoding         QuestionType = "Coding"
	QuestionTypeTrueFalse      QuestionType = "True/False"
	QuestionTypeYesNo          QuestionType = "Yes/No"
	QuestionTypeMatchFollowing QuestionType = "match-following"
	QuestionTypeImage          QuestionType = "Image"
	QuestionTypeAudio          QuestionType = "audio-based"
	QuestionTypeDiscRanking    QuestionType = "disc-ranking"
	QuestionTypeDiscBehavioral QuestionType = "disc-behavioral"
)

// AllQuestionTypes lists every member of the enum, in catalog order.
var AllQuestionTypes = []QuestionType{
	QuestionTypeSingleSelect,
	QuestionTypeMultipleSelect,
	QuestionTypeEssay,
	QuestionTypeFillup,
	QuestionTypeCoding,
	QuestionTypeTrueFalse,
	QuestionTypeYesNo,
	QuestionTypeMatchFollowing,
	QuestionTypeImage,
	QuestionTypeAudio,
	QuestionTypeDiscRanking,
	QuestionTypeDiscBehavioral,
}

// Valid reports whether t is a member of the closed enum.
func (t QuestionType) Valid() bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Question is a single catalog entry. The catalog is read-only to the
// session engine and immutable for the lifetime of a session.
type Question struct {
	ID      string       `json:"id"`
	Tid     string       `json:"tid"`
	Title   string       `json:"title"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Marks   int          `json:"marks"`
	Skills  []string     `json:"skills,omitempty"`
}
