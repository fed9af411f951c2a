package errors

import "fmt"

// ErrorType classifies pipeline failures so callers can tell fatal conditions
// apart from per-channel ones without string matching.
type ErrorType string

const (
	// ErrorTypeAuth means the provider rejected the supplied credentials.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeChallenge means a manual verification step (captcha, 2FA)
	// was presented and not resolved within the challenge timeout.
	ErrorTypeChallenge ErrorType = "challenge"
	// ErrorTypeChannel covers navigation failures and structurally
	// unrecognizable pages. Isolated to one channel; the run continues.
	ErrorTypeChannel ErrorType = "channel"
	// ErrorTypeParsing marks degraded extraction of a single element.
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNoContent marks a channel that rendered but yielded no
	// posts. Not a failure; the channel contributes nothing.
	ErrorTypeNoContent ErrorType = "no_content"
	// ErrorTypeRun is fatal: the driver could not be acquired or every
	// channel failed.
	ErrorTypeRun ErrorType = "run"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error carries the failure class alongside the message.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error.
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates a typed error around a cause.
func Wrap(t ErrorType, msg string, cause error) *Error {
	return &Error{Type: t, Message: msg, Cause: cause}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown when err is
// not a typed pipeline error.
func TypeOf(err error) ErrorType {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether an error must abort the whole run instead of being
// recorded against a single channel.
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeAuth, ErrorTypeChallenge, ErrorTypeRun:
		return true
	}
	return false
}

// IsRetryable reports whether a channel-level error is worth another attempt.
// Auth and challenge failures never are; transient navigation failures are.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeChannel, ErrorTypeUnknown:
		return true
	default:
		return false
	}
}
