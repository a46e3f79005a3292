package rendering

import "fmt"

// TemplateError reports a template that cannot be loaded, parsed or fully
// resolved. It is fatal for the generation attempt that hit it.
type TemplateError struct {
	Message string
	// Placeholder names the unresolved placeholder, when known.
	Placeholder string
	Cause       error
}

func (e *TemplateError) Error() string {
	msg := e.Message
	if e.Placeholder != "" {
		msg = fmt.Sprintf("%s (placeholder %s)", msg, e.Placeholder)
	}
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("template error: %s", msg)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
