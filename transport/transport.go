package transport

import (
	"fmt"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

// DefaultReadTimeout bounds every blocking read on a connection
const DefaultReadTimeout = 30 * time.Second

// Transport defines the interface for network transports
type Transport interface {
	// Connect establishes a connection to the specified host and port
	Connect(host string, port uint16) error

	// Write sends data over the connection
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Read receives data from the connection
	// Returns the number of bytes read
	Read(buf []byte) (int, error)

	// Close closes the connection and releases any resources it holds
	Close() error
}

// Kind names a Transport implementation
type Kind string

const (
	KindTcp     Kind = "tcp"
	KindIoUring Kind = "iouring"
	KindUring   Kind = "uring"
	KindUnix    Kind = "unix"
)

// Options selects and configures the transport created for each connection
type Options struct {
	Kind        Kind
	UnixSocket  string
	ReadTimeout time.Duration
}

// New creates an unconnected transport. A UnixSocket path wins over Kind.
func New(opts Options) (Transport, error) {
	if opts.UnixSocket != "" {
		t := NewUnixTransport(opts.UnixSocket)
		t.ReadTimeout = opts.ReadTimeout
		return t, nil
	}

	switch opts.Kind {
	case KindTcp, "":
		t := NewTcpTransport()
		t.ReadTimeout = opts.ReadTimeout
		return t, nil
	case KindIoUring:
		return newIoUring(opts.ReadTimeout)
	case KindUring:
		return newUring(opts.ReadTimeout)
	case KindUnix:
		return nil, errors.NewInvalidArgumentError("unix transport needs a socket path")
	default:
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", opts.Kind))
	}
}
