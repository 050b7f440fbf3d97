package transport

import (
	"net"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

// UnixTransport implements the Transport interface using a Unix domain
// socket. Every Connect dials the same socket path; host and port only
// matter to the Host header and the connection cache key.
type UnixTransport struct {
	conn net.Conn
	path string

	ReadTimeout time.Duration
}

// NewUnixTransport creates a new UnixTransport bound to path
func NewUnixTransport(path string) *UnixTransport {
	return &UnixTransport{
		path:        path,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Connect dials the socket path. host and port are ignored.
func (t *UnixTransport) Connect(host string, port uint16) error {
	conn, err := net.Dial("unix", t.path)
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "failed to connect to unix socket "+t.path, err)
	}

	t.conn = conn
	return nil
}

// Write sends data over the Unix domain socket
func (t *UnixTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		return n, classifyWriteError(err)
	}
	return n, nil
}

// Read receives data from the Unix domain socket
func (t *UnixTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	if t.ReadTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.ReadTimeout)); err != nil {
			return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "failed to set read deadline", err)
		}
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		return n, classifyReadError(err)
	}
	return n, nil
}

// Close closes the Unix domain socket connection
func (t *UnixTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "failed to close socket", err)
	}
	return nil
}
