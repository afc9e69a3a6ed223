package model

// CandidateInfo is the candidate metadata spread into the submission
// envelope. Field names mirror what the scoring service expects.
type CandidateInfo struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`
}

// SubmissionRecord is the normalized per-question answer sent to the
// remote scoring service. The mixed-case JSON keys are part of the wire
// contract and must not be changed.
type SubmissionRecord struct {
	Tid       string   `json:"Tid"`
	Ttit      string   `json:"Ttit"`
	Type      string   `json:"type"`
	QID       string   `json:"QID"`
	Selopt    string   `json:"Selopt"`
	TimeTaken int      `json:"TimeTaken"`
	Skills    []string `json:"Skills"`
}

// SubmissionEnvelope is the top-level JSON body posted to the scoring
// endpoint: candidate fields spread at the top level plus the answer list
// and a fixed-width local timestamp.
type SubmissionEnvelope struct {
	CandidateInfo
	Answers            []SubmissionRecord `json:"answers"`
	SubmissionDateTime string             `json:"submissionDateTime"`
}

// SubmissionTimeLayout is the fixed-width local-time layout used for
// SubmissionDateTime.
const SubmissionTimeLayout = "2006-01-02 15:04:05"
