package extraction

import "fmt"

// Reasons an extraction can fail.
const (
	ReasonTooShort           = "too_short"
	ReasonNoUsableData       = "no_usable_data"
	ReasonServiceUnavailable = "service_unavailable"
)

// ExtractionError reports that a resume could not be turned into a profile.
// It is recoverable: the user can paste the resume again.
type ExtractionError struct {
	Reason  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Reason, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
