package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched (via errors.Is) by any StatusError carrying a 404.
var ErrNotFound = errors.New("api: not found")

// TransportError means the service could not be reached or its response could not be read.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %s returned %d: %s", e.URL, e.StatusCode, msg)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
