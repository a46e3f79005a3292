package parsing

import "fmt"

// Reasons a job posting can be rejected.
const (
	ReasonEmpty              = "empty"
	ReasonTooShort           = "too_short"
	ReasonNoKeywords         = "no_keywords"
	ReasonServiceUnavailable = "service_unavailable"
)

// AnalysisError reports that a job posting could not be analyzed. It is
// recoverable: the user can paste the posting again.
type AnalysisError struct {
	Reason  string
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job analysis failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("job analysis failed (%s): %s", e.Reason, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
