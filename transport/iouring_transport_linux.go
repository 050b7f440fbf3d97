//go:build linux

package transport

import (
	"fmt"
	"syscall"
	"time"

	"github.com/iceber/iouring-go"

	"github.com/AgentX1994/go-wget/errors"
)

const ringEntries = 32

// IoUringTransport implements Transport using io_uring for async I/O
type IoUringTransport struct {
	iour   *iouring.IOURing
	fd     int
	closed bool

	// ReadTimeout bounds the wait for each receive completion
	ReadTimeout time.Duration
}

// NewIoUringTransport creates a new TCP transport with io_uring
func NewIoUringTransport() (*IoUringTransport, error) {
	iour, err := iouring.New(ringEntries)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &IoUringTransport{
		iour:        iour,
		fd:          -1,
		ReadTimeout: DefaultReadTimeout,
	}, nil
}

func newIoUring(readTimeout time.Duration) (Transport, error) {
	t, err := NewIoUringTransport()
	if err != nil {
		return nil, err
	}
	t.ReadTimeout = readTimeout
	return t, nil
}

// Connect establishes a TCP connection using io_uring
func (t *IoUringTransport) Connect(host string, port uint16) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}
	if t.iour == nil {
		return errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"ring already released",
			nil,
		)
	}

	fd, sa, err := openTcpSocket(host, port)
	if err != nil {
		return err
	}

	// socket stays blocking: io_uring hands back EAGAIN on O_NONBLOCK sockets
	prep, err := iouring.Connect(fd, sa)
	if err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to prepare connect to %s:%d", host, port),
			err,
		)
	}

	ch := make(chan iouring.Result, 1)
	if _, err := t.iour.SubmitRequest(prep, ch); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit connect request",
			err,
		)
	}

	if _, err := completion(<-ch); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s:%d", host, port),
			err,
		)
	}

	t.fd = fd
	t.closed = false
	return nil
}

// Write sends data over the connection using io_uring
func (t *IoUringTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 || t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		if _, err := t.iour.SubmitRequest(iouring.Send(t.fd, buf[totalWritten:], 0), ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		n, err := completion(<-ch)
		if err != nil {
			return totalWritten, classifyWriteError(err)
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (t *IoUringTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 || t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	if _, err := t.iour.SubmitRequest(iouring.Recv(t.fd, buf, 0), ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	var result iouring.Result
	if t.ReadTimeout > 0 {
		timer := time.NewTimer(t.ReadTimeout)
		defer timer.Stop()
		select {
		case result = <-ch:
		case <-timer.C:
			// shutdown completes the pending recv before buf is reused
			syscall.Shutdown(t.fd, syscall.SHUT_RDWR)
			<-ch
			t.closeSocket()
			return 0, errors.NewTransportError(
				errors.TransportErrorTimeout,
				"read timed out",
				nil,
			)
		}
	} else {
		result = <-ch
	}

	n, err := completion(result)
	if err != nil {
		return 0, classifyReadError(err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// completion returns the raw CQE result of a finished request.
// Send and Recv carry no resolver, so ReturnInt cannot be used for them.
func completion(result iouring.Result) (int, error) {
	if err := result.Err(); err != nil {
		return 0, err
	}
	req, ok := result.(iouring.Request)
	if !ok {
		return 0, fmt.Errorf("unexpected io_uring result %T", result)
	}
	res, err := req.GetRes()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, syscall.Errno(-res)
	}
	return res, nil
}

func (t *IoUringTransport) closeSocket() error {
	if t.fd < 0 || t.closed {
		return nil
	}
	t.closed = true
	err := syscall.Close(t.fd)
	t.fd = -1
	return err
}

// Close closes the socket and releases the ring
func (t *IoUringTransport) Close() error {
	err := t.closeSocket()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"failed to close socket",
			err,
		)
	}
	return nil
}
