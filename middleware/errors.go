package middleware

import (
	"errors"
	"fmt"

	"github.com/mcosta74/opstack/ports"
)

// Setup errors. They are returned by the interception API, never by Execute.
var (
	ErrMiddlewareNotFound  = errors.New("middleware not found")
	ErrDuplicateMiddleware = errors.New("duplicate middleware id")
	ErrStackSealed         = errors.New("stack already executed")
)

// SetupError reports an invalid stack assembly operation.
type SetupError struct {
	Step         string
	MiddlewareID string
	Err          error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s step: %s: %v", e.Step, e.MiddlewareID, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies an [OperationError].
type ErrorKind int

const (
	// KindClient is a failure that happened before or without a response.
	KindClient ErrorKind = iota + 1
	// KindService is a typed error decoded from a non-success response.
	KindService
	// KindUnknown is a non-success response matching no known error shape.
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindService:
		return "service"
	case KindUnknown:
		return "unknown"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// OperationError is the error returned by [Stack.Execute].
type OperationError struct {
	Kind     ErrorKind
	Phase    Phase
	Err      error
	Request  *ports.Request
	Response *ports.Response
}

// NewClientError returns a client error raised during phase.
func NewClientError(phase Phase, err error) *OperationError {
	return &OperationError{Kind: KindClient, Phase: phase, Err: err}
}

// NewServiceError returns a service error carrying the decoded error shape.
func NewServiceError(resp *ports.Response, err error) *OperationError {
	return &OperationError{Kind: KindService, Phase: PhaseDeserialize, Err: err, Response: resp}
}

// NewUnknownError returns an error for a response that matched no known shape.
func NewUnknownError(resp *ports.Response, message string) *OperationError {
	if message == "" {
		message = "unknown error"
	}
	return &OperationError{Kind: KindUnknown, Phase: PhaseDeserialize, Err: errors.New(message), Response: resp}
}

func (e *OperationError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("operation %s error (%s, status %d): %v", e.Kind, e.Phase, e.Response.StatusCode, e.Err)
	}
	return fmt.Sprintf("operation %s error (%s): %v", e.Kind, e.Phase, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err is a client [OperationError].
func IsClientError(err error) bool {
	return kindOf(err) == KindClient
}

// IsServiceError reports whether err is a service [OperationError].
func IsServiceError(err error) bool {
	return kindOf(err) == KindService
}

// IsUnknownError reports whether err is an unknown [OperationError].
func IsUnknownError(err error) bool {
	return kindOf(err) == KindUnknown
}

func kindOf(err error) ErrorKind {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return 0
}

// classify wraps err as a new client error of phase unless it is already
// classified. created reports whether a new error was returned.
func classify(phase Phase, err error) (oe *OperationError, created bool) {
	if errors.As(err, &oe) {
		return oe, false
	}
	return NewClientError(phase, err), true
}
