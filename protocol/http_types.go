package protocol

import "fmt"

// HttpMethod represents HTTP request methods
type HttpMethod int

const (
	MethodGet HttpMethod = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

func (m HttpMethod) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodConnect:
		return "CONNECT"
	case MethodOptions:
		return "OPTIONS"
	case MethodTrace:
		return "TRACE"
	case MethodPatch:
		return "PATCH"
	default:
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
}

// HttpVersion is the protocol version token of a request or status line
type HttpVersion int

const (
	Version1_0 HttpVersion = iota
	Version1_1
	Version2_0
)

func (v HttpVersion) String() string {
	switch v {
	case Version1_0:
		return "HTTP/1.0"
	case Version1_1:
		return "HTTP/1.1"
	case Version2_0:
		return "HTTP/2"
	default:
		return fmt.Sprintf("HttpVersion(%d)", int(v))
	}
}

// ParseVersion maps a version token to an HttpVersion.
func ParseVersion(token string) (HttpVersion, bool) {
	switch token {
	case "HTTP/1.0":
		return Version1_0, true
	case "HTTP/1.1":
		return Version1_1, true
	case "HTTP/2", "HTTP/2.0":
		return Version2_0, true
	default:
		return 0, false
	}
}

// StatusFamily is the class of a status code, keyed by its leading digit
type StatusFamily int

const (
	Informational StatusFamily = iota + 1
	Successful
	Redirection
	ClientError
	ServerError
)

func (f StatusFamily) String() string {
	switch f {
	case Informational:
		return "informational"
	case Successful:
		return "successful"
	case Redirection:
		return "redirection"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// FamilyOf returns the family of code. ok is false outside 100-599.
func FamilyOf(code int) (family StatusFamily, ok bool) {
	if code < 100 || code > 599 {
		return 0, false
	}
	return StatusFamily(code / 100), true
}
