package protocol

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/errors"
)

// scriptedTransport replays a canned server stream and records writes.
type scriptedTransport struct {
	in        io.Reader
	out       bytes.Buffer
	maxWrite  int
	connected bool
	closed    bool
}

func (s *scriptedTransport) Connect(host string, port uint16) error {
	s.connected = true
	return nil
}

func (s *scriptedTransport) Write(buf []byte) (int, error) {
	if s.maxWrite > 0 && len(buf) > s.maxWrite {
		buf = buf[:s.maxWrite]
	}
	return s.out.Write(buf)
}

func (s *scriptedTransport) Read(buf []byte) (int, error) {
	n, err := s.in.Read(buf)
	if err == io.EOF {
		return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
	}
	return n, err
}

func (s *scriptedTransport) Close() error {
	s.closed = true
	return nil
}

func TestHttp1Protocol_PerformRequest(t *testing.T) {
	trans := &scriptedTransport{
		in: strings.NewReader("HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\nHello, World!"),
	}
	proto := NewHttp1Protocol(trans, zerolog.Nop())

	if err := proto.Connect("localhost", 80); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !trans.connected {
		t.Error("Expected Connect to reach the transport")
	}

	req := NewGetRequest("localhost", "/test", "test-agent")
	resp, err := proto.PerformRequest(req)
	if err != nil {
		t.Fatalf("PerformRequest failed: %v", err)
	}

	if trans.out.String() != req.String() {
		t.Errorf("Expected request %q on the wire, got %q", req.String(), trans.out.String())
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status code 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "Hello, World!" {
		t.Errorf("Expected body %q, got %q", "Hello, World!", string(resp.Body))
	}

	if err := proto.Disconnect(); err != nil {
		t.Errorf("Disconnect failed: %v", err)
	}
	if !trans.closed {
		t.Error("Expected Disconnect to close the transport")
	}
}

func TestHttp1Protocol_PartialWrites(t *testing.T) {
	trans := &scriptedTransport{
		in:       strings.NewReader("HTTP/1.1 204 No Content\r\n\r\n"),
		maxWrite: 7,
	}
	proto := NewHttp1Protocol(trans, zerolog.Nop())

	req := NewGetRequest("localhost", "/", "test-agent")
	if _, err := proto.PerformRequest(req); err != nil {
		t.Fatalf("PerformRequest failed: %v", err)
	}
	if trans.out.String() != req.String() {
		t.Errorf("Expected the full request after partial writes, got %q", trans.out.String())
	}
}

func TestHttp1Protocol_KeepAliveSequence(t *testing.T) {
	stream := "HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\none" +
		"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n3\r\ntwo\r\n0\r\n\r\n" +
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nthree"
	trans := &scriptedTransport{in: strings.NewReader(stream)}
	proto := NewHttp1Protocol(trans, zerolog.Nop())

	for _, want := range []string{"one", "two", "three"} {
		resp, err := proto.PerformRequest(NewGetRequest("localhost", "/", "test-agent"))
		if err != nil {
			t.Fatalf("PerformRequest for %q failed: %v", want, err)
		}
		if string(resp.Body) != want {
			t.Errorf("Expected body %q, got %q", want, string(resp.Body))
		}
	}

	_, err := proto.PerformRequest(NewGetRequest("localhost", "/", "test-agent"))
	if !errors.IsTransport(err, errors.TransportErrorConnectionClosed) {
		t.Errorf("Expected ConnectionClosed once the stream is exhausted, got %v", err)
	}
}
