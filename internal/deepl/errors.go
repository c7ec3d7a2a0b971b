package deepl

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// KindValidation is malformed local input detected before any request.
	KindValidation Kind = iota + 1
	// KindTransport is a network or connection failure.
	KindTransport
	// KindDeserialize is a success response whose body does not match the expected schema.
	KindDeserialize
	// KindClient is a 4xx response.
	KindClient
	// KindServer is a 5xx response, or another non-success status carrying a structured error.
	KindServer
	// KindInvalidResponse is a non-success response whose body is not the error schema.
	KindInvalidResponse
)

var (
	ErrValidation      = errors.New("validation error")
	ErrTransport       = errors.New("transport error")
	ErrDeserialize     = errors.New("deserialize error")
	ErrClient          = errors.New("client error")
	ErrServer          = errors.New("server error")
	ErrInvalidResponse = errors.New("invalid response")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTransport:
		return ErrTransport
	case KindDeserialize:
		return ErrDeserialize
	case KindClient:
		return ErrClient
	case KindServer:
		return ErrServer
	case KindInvalidResponse:
		return ErrInvalidResponse
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every Client operation. It never carries the auth key.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "deepl: " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of e's kind, so errors.Is(err, ErrClient) works.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindClient && e.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether a caller-driven retry may succeed: transport
// failures, server errors, rate limiting and service overload.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindTransport, KindServer:
		return true
	case KindClient:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
