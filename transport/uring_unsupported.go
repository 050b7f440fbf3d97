//go:build !linux

package transport

import (
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

func newIoUring(readTimeout time.Duration) (Transport, error) {
	return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring is only available on linux", nil)
}

func newUring(readTimeout time.Duration) (Transport, error) {
	return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring is only available on linux", nil)
}
