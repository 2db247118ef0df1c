package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed catalog request.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindTimeout
	KindEmptyBody
	KindParseFailure
	KindQueryEncoding
	KindHTTPStatus
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTimeout:
		return "timeout"
	case KindEmptyBody:
		return "empty body"
	case KindParseFailure:
		return "parse failure"
	case KindQueryEncoding:
		return "query encoding failure"
	case KindHTTPStatus:
		return "http status"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that talks to the remote catalog.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("api: http status %d", e.Status)
	case KindParseFailure, KindQueryEncoding:
		return fmt.Sprintf("api: %s: %s", e.Kind, e.Detail)
	default:
		if e.Err != nil {
			return fmt.Sprintf("api: %s: %v", e.Kind, e.Err)
		}
		return "api: " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the short text shown in the error view.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnauthenticated:
		return "Auth error, please log in again"
	case KindTimeout:
		return "Connection timed out, please try again"
	case KindEmptyBody:
		return "Empty response body"
	case KindParseFailure:
		return "Parse error: " + e.Detail
	case KindQueryEncoding:
		return "Query encoding error: " + e.Detail
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP error: %d", e.Status)
	default:
		return "Check your internet connection"
	}
}

// ErrUnauthenticated is returned when no usable access token is available.
var ErrUnauthenticated = &Error{Kind: KindUnauthenticated}

// Message converts any error into the text shown to the user. Errors that are
// not *Error fall back to the unknown-transport message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return (&Error{Kind: classifyTransport(err), Err: err}).UserMessage()
}

// KindOf reports the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnknown
}

func transportError(err error) *Error {
	return &Error{Kind: classifyTransport(err), Err: err}
}
