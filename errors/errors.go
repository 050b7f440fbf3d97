package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorUrl
	ErrorInvalidArgument
	ErrorUnsupported
)

func (t ErrorType) String() string {
	switch t {
	case ErrorNone:
		return "none"
	case ErrorTransport:
		return "transport"
	case ErrorProtocol:
		return "protocol"
	case ErrorUrl:
		return "url"
	case ErrorInvalidArgument:
		return "invalid argument"
	case ErrorUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorConnectionClosed
	TransportErrorDnsFailure
	TransportErrorTimeout
	TransportErrorShortRead
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorNone:
		return "none"
	case TransportErrorSocketCreateFailure:
		return "socket create failure"
	case TransportErrorSocketConnectFailure:
		return "socket connect failure"
	case TransportErrorSocketReadFailure:
		return "socket read failure"
	case TransportErrorSocketWriteFailure:
		return "socket write failure"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorDnsFailure:
		return "DNS lookup failure"
	case TransportErrorTimeout:
		return "timeout"
	case TransportErrorShortRead:
		return "short read"
	case TransportErrorIoUringInit:
		return "io_uring init failure"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failure"
	default:
		return fmt.Sprintf("TransportError(%d)", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidStatusLine
	ProtocolErrorUnknownVersion
	ProtocolErrorInvalidStatusCode
	ProtocolErrorInvalidHeader
	ProtocolErrorInvalidContentLength
	ProtocolErrorInvalidChunkedEncoding
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorNone:
		return "none"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorUnknownVersion:
		return "unknown HTTP version"
	case ProtocolErrorInvalidStatusCode:
		return "invalid status code"
	case ProtocolErrorInvalidHeader:
		return "malformed header"
	case ProtocolErrorInvalidContentLength:
		return "invalid content length"
	case ProtocolErrorInvalidChunkedEncoding:
		return "invalid chunked encoding"
	default:
		return fmt.Sprintf("ProtocolError(%d)", int(e))
	}
}

// UrlError represents URL parsing errors
type UrlError int

const (
	UrlErrorNone UrlError = iota
	UrlErrorInvalidPort
	UrlErrorEmptyHost
	UrlErrorUnknownProtocol
)

func (e UrlError) String() string {
	switch e {
	case UrlErrorNone:
		return "none"
	case UrlErrorInvalidPort:
		return "invalid port"
	case UrlErrorEmptyHost:
		return "empty host"
	case UrlErrorUnknownProtocol:
		return "unknown protocol"
	default:
		return fmt.Sprintf("UrlError(%d)", int(e))
	}
}

// HttpError is the main error type for the HTTP client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	UrlErr        UrlError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorUrl:
		typeStr = fmt.Sprintf("URL error (%s)", e.UrlErr)
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	case ErrorUnsupported:
		typeStr = "Unsupported"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewUrlError creates a new URL parsing error
func NewUrlError(err UrlError, message string) *HttpError {
	return &HttpError{
		Type:    ErrorUrl,
		UrlErr:  err,
		Message: message,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// NewUnsupportedError creates an error for a feature the client does not implement
func NewUnsupportedError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorUnsupported,
		Message: message,
	}
}

func as(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsTransport reports whether err wraps a transport error of the given kind.
// TransportErrorNone matches any transport error.
func IsTransport(err error, kind TransportError) bool {
	httpErr, ok := as(err)
	if !ok || httpErr.Type != ErrorTransport {
		return false
	}
	return kind == TransportErrorNone || httpErr.TransportErr == kind
}

// IsProtocol reports whether err wraps a protocol error of the given kind.
// ProtocolErrorNone matches any protocol error.
func IsProtocol(err error, kind ProtocolError) bool {
	httpErr, ok := as(err)
	if !ok || httpErr.Type != ErrorProtocol {
		return false
	}
	return kind == ProtocolErrorNone || httpErr.ProtocolErr == kind
}

// IsUrl reports whether err wraps a URL error of the given kind.
// UrlErrorNone matches any URL error.
func IsUrl(err error, kind UrlError) bool {
	httpErr, ok := as(err)
	if !ok || httpErr.Type != ErrorUrl {
		return false
	}
	return kind == UrlErrorNone || httpErr.UrlErr == kind
}

// TypeOf returns the category of err, or ErrorNone if err is not an *HttpError.
func TypeOf(err error) ErrorType {
	if httpErr, ok := as(err); ok {
		return httpErr.Type
	}
	return ErrorNone
}
