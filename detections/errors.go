package detections

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound   = errors.New("model file not found")
	ErrPoolUnavailable = errors.New("no inference session available")
	ErrPoolClosed      = errors.New("session pool is closed")
)

// ModelLoadError is returned by Load when the weight file cannot be turned
// into a usable detector. The service must not start serving after it.
type ModelLoadError struct {
	Path  string
	Cause error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Path, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// InferenceError wraps any failure while running a single image through the
// model. No partial result accompanies it.
type InferenceError struct {
	Message string
	Cause   error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InferenceError) Unwrap() error { return e.Cause }
