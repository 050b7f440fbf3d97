//go:build linux

package transport

import (
	stderrors "errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/godzie44/go-uring/uring"
	"golang.org/x/sys/unix"

	"github.com/AgentX1994/go-wget/errors"
)

// UringTransport implements Transport using godzie44/go-uring for async I/O.
// Each read first polls the socket for up to ReadTimeout.
type UringTransport struct {
	ring *uring.Ring
	fd   int
	file *os.File

	ReadTimeout time.Duration
}

// NewUringTransport creates a new TCP transport with io_uring (godzie44/go-uring)
func NewUringTransport() (*UringTransport, error) {
	ring, err := uring.New(ringEntries)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{
		ring:        ring,
		fd:          -1,
		ReadTimeout: DefaultReadTimeout,
	}, nil
}

func newUring(readTimeout time.Duration) (Transport, error) {
	t, err := NewUringTransport()
	if err != nil {
		return nil, err
	}
	t.ReadTimeout = readTimeout
	return t, nil
}

// Connect establishes a TCP connection
func (t *UringTransport) Connect(host string, port uint16) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}
	if t.ring == nil {
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

	// Use blocking connect for now
	if err := syscall.Connect(fd, sa); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s:%d", host, port),
			err,
		)
	}

	t.fd = fd
	t.file = os.NewFile(uintptr(fd), "socket")
	return nil
}

// submitAndWait queues op and blocks for its completion.
func (t *UringTransport) submitAndWait(op uring.Operation) (int, error) {
	if err := t.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue request",
			err,
		)
	}

	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to wait for completion",
			err,
		)
	}
	defer t.ring.SeenCQE(cqe)

	if err := cqe.Error(); err != nil {
		return 0, err
	}
	return int(cqe.Res), nil
}

// Write sends data over the connection using io_uring
func (t *UringTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.submitAndWait(uring.Write(t.file.Fd(), buf[totalWritten:], 0))
		if err != nil {
			if _, ok := err.(*errors.HttpError); ok {
				return totalWritten, err
			}
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
func (t *UringTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	if t.ReadTimeout > 0 {
		if err := t.waitReadable(); err != nil {
			return 0, err
		}
	}

	n, err := t.submitAndWait(uring.Read(t.file.Fd(), buf, 0))
	if err != nil {
		if _, ok := err.(*errors.HttpError); ok {
			return 0, err
		}
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

// waitReadable blocks until the socket has data, hangs up, or ReadTimeout passes.
func (t *UringTransport) waitReadable() error {
	deadline := time.Now().Add(t.ReadTimeout)
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errors.NewTransportError(errors.TransportErrorTimeout, "read timed out", nil)
		}

		n, err := unix.Poll(fds, int(remaining.Milliseconds())+1)
		if err != nil {
			if stderrors.Is(err, unix.EINTR) {
				continue
			}
			return errors.NewTransportError(errors.TransportErrorSocketReadFailure, "poll failed", err)
		}
		if n > 0 {
			return nil
		}
	}
}

// Close closes the socket and releases the ring
func (t *UringTransport) Close() error {
	var err error
	if t.file != nil {
		err = t.file.Close()
		t.file = nil
	}
	t.fd = -1

	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
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
