package model

import "errors"

var (
	// ErrInvalidInput means the audio could not be decoded or its duration
	// could not be determined. Raised before any engine call.
	ErrInvalidInput = errors.New("invalid audio file")
	// ErrTranscriptionFailed means the ASR or VAD engine call failed.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Error carries one of the error kinds above together with the underlying
// cause. errors.Is matches both the kind and the cause.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// InvalidInput wraps err as ErrInvalidInput.
func InvalidInput(err error) error {
	return &Error{Kind: ErrInvalidInput, Err: err}
}

// TranscriptionFailed wraps err as ErrTranscriptionFailed.
func TranscriptionFailed(err error) error {
	return &Error{Kind: ErrTranscriptionFailed, Err: err}
}

// Kind returns a short name for the error kind, used for metrics and API
// error bodies.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrTranscriptionFailed):
		return "TranscriptionFailed"
	default:
		return "InternalServerError"
	}
}

// Cause returns the underlying message without the kind prefix.
func Cause(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
