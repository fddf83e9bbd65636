package mediator

import (
	"errors"
	"fmt"
)

// ErrInvalidStreamResult is returned by SendStream when the pipeline
// produced something other than a pipeline.Stream, for example a
// short-circuiting middleware returning a plain value.
var ErrInvalidStreamResult = errors.New("stream pipeline returned a non-stream result")

// NoHandlerError reports a request type with no registered handler.
type NoHandlerError struct {
	MessageType string
}

// Error implements error
func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler registered for request type %s", e.MessageType)
}

// AmbiguousHandlerError reports a request type with more than one registered
// handler.
type AmbiguousHandlerError struct {
	MessageType string
	Count       int
}

// Error implements error
func (e *AmbiguousHandlerError) Error() string {
	return fmt.Sprintf("%d handlers registered for request type %s, want exactly one", e.Count, e.MessageType)
}

// IsNoHandler reports whether err means no handler was registered.
func IsNoHandler(err error) bool {
	var e *NoHandlerError
	return errors.As(err, &e)
}

// IsAmbiguousHandler reports whether err means handler resolution was ambiguous.
func IsAmbiguousHandler(err error) bool {
	var e *AmbiguousHandlerError
	return errors.As(err, &e)
}
