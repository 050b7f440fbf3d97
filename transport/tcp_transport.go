package transport

import (
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

// TcpTransport implements the Transport interface using TCP sockets
type TcpTransport struct {
	conn net.Conn

	ConnectTimeout time.Duration
	// ReadTimeout is applied as a fresh deadline before every Read
	ReadTimeout time.Duration
}

// NewTcpTransport creates a new TcpTransport instance
func NewTcpTransport() *TcpTransport {
	return &TcpTransport{
		conn:           nil,
		ConnectTimeout: DefaultReadTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// Connect establishes a TCP connection to the specified host and port
func (t *TcpTransport) Connect(host string, port uint16) error {
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	dialer := net.Dialer{Timeout: t.ConnectTimeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return classifyDialError(addr, err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return errors.NewTransportError(errors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
		}
	}

	t.conn = conn
	return nil
}

// Write sends data over the TCP connection
func (t *TcpTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		return n, classifyWriteError(err)
	}
	return n, nil
}

// Read receives data from the TCP connection
func (t *TcpTransport) Read(buf []byte) (int, error) {
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

// Close closes the TCP connection
func (t *TcpTransport) Close() error {
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

func classifyDialError(addr string, err error) error {
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return errors.NewTransportError(errors.TransportErrorDnsFailure, fmt.Sprintf("failed to resolve %s", addr), err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTransportError(errors.TransportErrorTimeout, fmt.Sprintf("timed out connecting to %s", addr), err)
	}
	return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, fmt.Sprintf("failed to connect to %s", addr), err)
}

func classifyWriteError(err error) error {
	// Check for broken pipe or connection reset
	if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed during write", err)
	}
	return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
}

func classifyReadError(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTransportError(errors.TransportErrorTimeout, "read timed out", err)
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, syscall.ECONNRESET) {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
	}
	return errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
}
