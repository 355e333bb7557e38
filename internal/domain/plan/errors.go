package plan

import "fmt"

// ProviderStreamError reports a failure of the completion stream after it
// was opened.
type ProviderStreamError struct {
	Err error
}

func (e *ProviderStreamError) Error() string {
	return fmt.Sprintf("provider stream failed: %v", e.Err)
}

func (e *ProviderStreamError) Unwrap() error {
	return e.Err
}

// MalformedPlanError reports that the accumulated model output is not a
// valid plan document. Raw holds the full buffer for diagnostics.
type MalformedPlanError struct {
	Raw string
	Err error
}

func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("malformed plan document: %v", e.Err)
}

func (e *MalformedPlanError) Unwrap() error {
	return e.Err
}
