//go:build linux

package transport

import (
	"net"
	"testing"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

// ringTransports builds each io_uring backed transport, skipping the test
// when the kernel or sandbox refuses to create a ring.
func ringTransports(t *testing.T, readTimeout time.Duration) map[string]Transport {
	t.Helper()

	transports := make(map[string]Transport)
	for _, kind := range []Kind{KindIoUring, KindUring} {
		trans, err := New(Options{Kind: kind, ReadTimeout: readTimeout})
		if err != nil {
			for _, created := range transports {
				created.Close()
			}
			if errors.IsTransport(err, errors.TransportErrorIoUringInit) {
				t.Skipf("io_uring unavailable: %v", err)
			}
			t.Fatalf("New(%q) failed: %v", kind, err)
		}
		transports[string(kind)] = trans
	}
	return transports
}

func TestRingTransports_RequestResponse(t *testing.T) {
	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			request := "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"
			response := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
			received := make(chan string, 1)

			host, port, cleanup := setupTcpTestServer(t, func(conn net.Conn) {
				buf := make([]byte, 1024)
				n, _ := conn.Read(buf)
				received <- string(buf[:n])
				conn.Write([]byte(response))
			})
			defer cleanup()

			if err := trans.Connect(host, port); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}

			n, err := trans.Write([]byte(request))
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if n != len(request) {
				t.Errorf("Expected to write %d bytes, wrote %d", len(request), n)
			}

			select {
			case msg := <-received:
				if msg != request {
					t.Errorf("Expected %q, got %q", request, msg)
				}
			case <-time.After(time.Second):
				t.Fatal("Timeout waiting for request")
			}

			var got []byte
			buf := make([]byte, 1024)
			for len(got) < len(response) {
				n, err := trans.Read(buf)
				if err != nil {
					t.Fatalf("Read failed after %q: %v", got, err)
				}
				got = append(got, buf[:n]...)
			}
			if string(got) != response {
				t.Errorf("Expected %q, got %q", response, string(got))
			}
		})
	}
}

func TestRingTransports_Read_ConnectionClosed(t *testing.T) {
	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			host, port, cleanup := setupTcpTestServer(t, func(conn net.Conn) {})
			defer cleanup()

			if err := trans.Connect(host, port); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}

			buf := make([]byte, 64)
			_, err := trans.Read(buf)

			expectTransportError(t, err, errors.TransportErrorConnectionClosed)
		})
	}
}

func TestRingTransports_Read_ConnectionReset(t *testing.T) {
	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			host, port, cleanup := setupTcpTestServer(t, func(conn net.Conn) {
				conn.Read(make([]byte, 64))
				resetOnClose(conn)
			})
			defer cleanup()

			if err := trans.Connect(host, port); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}
			if _, err := trans.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			_, err := trans.Read(make([]byte, 64))

			expectTransportError(t, err, errors.TransportErrorConnectionClosed)
		})
	}
}

func TestRingTransports_Read_Timeout(t *testing.T) {
	for name, trans := range ringTransports(t, 50*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			release := make(chan struct{})
			host, port, cleanup := setupTcpTestServer(t, func(conn net.Conn) {
				<-release
			})
			defer cleanup()
			defer close(release)

			if err := trans.Connect(host, port); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}

			buf := make([]byte, 64)
			_, err := trans.Read(buf)

			expectTransportError(t, err, errors.TransportErrorTimeout)
		})
	}
}

func TestRingTransports_NotConnected(t *testing.T) {
	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			_, err := trans.Write([]byte("test"))
			expectTransportError(t, err, errors.TransportErrorSocketWriteFailure)

			_, err = trans.Read(make([]byte, 8))
			expectTransportError(t, err, errors.TransportErrorSocketReadFailure)
		})
	}
}

func TestRingTransports_Connect_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	port := uint16(listener.Addr().(*net.TCPAddr).Port)
	listener.Close()

	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			defer trans.Close()

			err := trans.Connect("127.0.0.1", port)
			expectTransportError(t, err, errors.TransportErrorSocketConnectFailure)
		})
	}
}

func TestRingTransports_Close_Idempotent(t *testing.T) {
	for name, trans := range ringTransports(t, time.Second) {
		t.Run(name, func(t *testing.T) {
			if err := trans.Close(); err != nil {
				t.Errorf("First close failed: %v", err)
			}
			if err := trans.Close(); err != nil {
				t.Errorf("Second close failed: %v", err)
			}
		})
	}
}
