package labels

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Kind tells callers which side of the boundary a failure came from.
type Kind int

const (
	KindNone Kind = iota
	KindService
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindTransport:
		return "transport"
	default:
		return "none"
	}
}

// ServiceError is returned when the vision service was reached and answered with an
// error payload. Message is the service's message, verbatim.
type ServiceError struct {
	Code    codes.Code
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// TransportError is returned when the request could not be completed: the image could
// not be read, the client could not be created, or the RPC itself failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError for the given operation.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// KindOf reports the kind of a pipeline failure, looking through wrapped errors.
// Errors that carry neither kind are treated as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		return KindService
	}
	return KindTransport
}

// Message returns the message of the pipeline error carried by err, without any
// wrapping added by outer layers.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Message
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Error()
	}
	return err.Error()
}

func unexpectedResponses(n int) error {
	return &ServiceError{
		Code:    codes.Internal,
		Message: fmt.Sprintf("expected 1 image response from vision service, got %d", n),
	}
}
