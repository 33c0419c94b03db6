package services

import "fmt"

// ValidationError reports an inbound payload that does not match the
// expected shape. Fields maps a JSON path to what is wrong with it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// BackendError is any failure of a single inference backend call.
// StatusCode is 0 when Ollama could not be reached at all.
type BackendError struct {
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	prefix := "ollama"
	if e.Model != "" {
		prefix += " " + e.Model
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", prefix, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// Unavailable reports whether the backend was unreachable rather than
// answering with an error.
func (e *BackendError) Unavailable() bool { return e.StatusCode == 0 && e.Err != nil }

// InferenceError is returned by the relay once the backend has failed and no
// fallback is left. Fallback holds the default-model retry failure when one
// was attempted; Cause is always the first failure.
type InferenceError struct {
	Model         string
	Cause         error
	FallbackModel string
	Fallback      error
}

func (e *InferenceError) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("inference failed for %s (%v); fallback to %s failed: %v", e.Model, e.Cause, e.FallbackModel, e.Fallback)
	}
	return fmt.Sprintf("inference failed for %s: %v", e.Model, e.Cause)
}

func (e *InferenceError) Unwrap() []error {
	if e.Fallback != nil {
		return []error{e.Fallback, e.Cause}
	}
	return []error{e.Cause}
}
