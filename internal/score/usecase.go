package score

import "glean/internal/submission"

// SubmissionScorer scores a submission in place and reports how.
type SubmissionScorer interface {
	Score(s *submission.Submission, detailed bool) (Result, error)
}
