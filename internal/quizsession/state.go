package quizsession

type SubmissionState int

const (
	NotSubmitted SubmissionState = iota
	Submitting
	Submitted
	Failed
)

func (s SubmissionState) String() string {
	switch s {
	case NotSubmitted:
		return "not_submitted"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
