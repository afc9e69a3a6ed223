// Package submission turns finalized exam session state into the
// normalized answer records the remote scoring service expects.
package submission

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verisant/proctor-backend/internal/model"
)

// formatFunc renders the normalized response values of one question into
// its Selopt string.
type formatFunc func(values []string, options []string) string

// formatters is the per-variant lookup table over the closed question
// type enum. Types without an entry fall back to option-index formatting,
// which covers every choice-based variant.
var formatters = map[model.QuestionType]formatFunc{
	model.QuestionTypeCoding:    formatConcat,
	model.QuestionTypeEssay:     formatConcat,
	model.QuestionTypeTrueFalse: formatJoin,
	model.QuestionTypeYesNo:     formatJoin,
	model.QuestionTypeFillup:    formatJoin,
}

// Build produces the submission envelope for a finished session. The
// caller flushes the session's pending dwell time first so timeSpent is
// final. now supplies the local submission timestamp.
func Build(
	questions []model.Question,
	responses map[int]any,
	timeSpent []int,
	candidate model.CandidateInfo,
	now time.Time,
) model.SubmissionEnvelope {
	records := make([]model.SubmissionRecord, 0, len(questions))

	for i, q := range questions {
		values := normalize(responses[i])

		format, ok := formatters[q.Type]
		if !ok {
			format = formatOptionIndices
		}

		taken := 0
		if i < len(timeSpent) && timeSpent[i] > 0 {
			taken = timeSpent[i]
		}

		skills := q.Skills
		if skills == nil {
			skills = []string{}
		}

		records = append(records, model.SubmissionRecord{
			Tid:       q.Tid,
			Ttit:      q.Title,
			Type:      string(q.Type),
			QID:       q.ID,
			Selopt:    format(values, q.Options),
			TimeTaken: taken,
			Skills:    skills,
		})
	}

	return model.SubmissionEnvelope{
		CandidateInfo:      candidate,
		Answers:            records,
		SubmissionDateTime: now.Format(model.SubmissionTimeLayout),
	}
}

// normalize coerces any stored response into a slice of strings. Non-slice
// values become one-element slices; nil becomes an empty slice. Structured
// values (matching maps, ranking maps) are JSON-encoded so they survive as
// a single readable element.
func normalize(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		return []string{val}
	case []string:
		return val
	case bool:
		return []string{fmt.Sprint(val)}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item))
		}
		return out
	default:
		return []string{stringify(val)}
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool, int, int64, float64:
		return fmt.Sprint(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

// formatConcat joins the elements into one concatenated string. A single
// string response is already the answer.
func formatConcat(values []string, _ []string) string {
	return strings.Join(values, "")
}

// formatJoin comma-joins the elements.
func formatJoin(values []string, _ []string) string {
	return strings.Join(values, ",")
}

// formatOptionIndices maps each selected value to its 1-based position in
// the question's options, rendered as "Option N". Values not present in
// the options are dropped silently.
func formatOptionIndices(values []string, options []string) string {
	var parts []string
	for _, v := range values {
		for idx, opt := range options {
			if opt == v {
				parts = append(parts, fmt.Sprintf("Option %d", idx+1))
				break
			}
		}
	}
	return strings.Join(parts, ",")
}
