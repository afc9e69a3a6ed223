package exam

// Status is the five-way classification of a question's completion state,
// derived on demand and never stored.
type Status string

const (
	StatusNotVisited     Status = "not-visited"
	StatusNotAnswered    Status = "not-answered"
	StatusAnswered       Status = "answered"
	StatusMarked         Status = "marked"
	StatusAnsweredMarked Status = "answered-marked"
)

// DeriveStatus maps runtime flags to a Status.
func DeriveStatus(st QuestionRuntimeState) Status {
	switch {
	case !st.Visited:
		return StatusNotVisited
	case st.Answered && st.MarkedForReview:
		return StatusAnsweredMarked
	case st.Answered:
		return StatusAnswered
	case st.MarkedForReview:
		return StatusMarked
	default:
		return StatusNotAnswered
	}
}

// StatusCounts is the rollup shown on the question palette and the
// submit-confirmation dialog.
type StatusCounts struct {
	Total           int `json:"total"`
	Answered        int `json:"answered"`
	NotAnswered     int `json:"not_answered"`
	MarkedForReview int `json:"marked_for_review"`
	NotVisited      int `json:"not_visited"`
}

// CountStatuses aggregates runtime flags into StatusCounts.
//
// A question in the plain "marked" status increments both MarkedForReview
// and NotAnswered, so Answered+NotAnswered+NotVisited can exceed Total.
// That arithmetic matches the frontend's historical counting and is relied
// on by its palette legend; do not "fix" it to a clean partition.
func CountStatuses(states []QuestionRuntimeState) StatusCounts {
	counts := StatusCounts{Total: len(states)}
	for _, st := range states {
		switch DeriveStatus(st) {
		case StatusAnswered:
			counts.Answered++
		case StatusAnsweredMarked:
			counts.Answered++
			counts.MarkedForReview++
		case StatusMarked:
			counts.MarkedForReview++
			counts.NotAnswered++
		case StatusNotAnswered:
			counts.NotAnswered++
		case StatusNotVisited:
			counts.NotVisited++
		}
	}
	return counts
}
