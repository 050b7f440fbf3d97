package client

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/internal/observability"
	"github.com/AgentX1994/go-wget/transport"
)

// recordedRequest is a request as the test server saw it
type recordedRequest struct {
	Line    string
	Path    string
	Headers map[string]string
}

// testServer accepts any number of connections and hands each to handler
// together with its 0-based accept index.
type testServer struct {
	Host string
	Port uint16

	listener net.Listener
	accepted atomic.Int32
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns []net.Conn
}

func setupTestServer(t *testing.T, handler func(conn net.Conn, index int)) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	s := &testServer{
		Host:     addr.IP.String(),
		Port:     uint16(addr.Port),
		listener: listener,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			index := int(s.accepted.Add(1)) - 1
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				handler(conn, index)
			}()
		}
	}()

	return s
}

// Accepted returns how many connections the server has taken
func (s *testServer) Accepted() int {
	return int(s.accepted.Load())
}

func (s *testServer) Close() {
	s.listener.Close()
	s.mu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// readRequest reads one request head from br.
func readRequest(br *bufio.Reader) (*recordedRequest, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, err
	}
	req := &recordedRequest{
		Line:    strings.TrimRight(line, "\r\n"),
		Headers: make(map[string]string),
	}
	if parts := strings.Split(req.Line, " "); len(parts) == 3 {
		req.Path = parts[1]
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return req, nil
		}
		if key, value, ok := strings.Cut(line, ": "); ok {
			req.Headers[key] = value
		}
	}
}

// serveRoutes answers every request on conn with the raw response
// routes holds for its path, or a 404.
func serveRoutes(routes map[string]string) func(net.Conn, int) {
	return func(conn net.Conn, _ int) {
		br := bufio.NewReader(conn)
		for {
			req, err := readRequest(br)
			if err != nil {
				return
			}
			raw, ok := routes[req.Path]
			if !ok {
				raw = "HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\n\r\nnot found"
			}
			if _, err := conn.Write([]byte(raw)); err != nil {
				return
			}
		}
	}
}

func newTestClient(opts Options) (*HttpClient, *ConnectionCache, *observability.Metrics) {
	metrics := observability.NewMetrics()
	cache := NewConnectionCache(
		NewTransportFactory(transport.Options{Kind: transport.KindTcp, ReadTimeout: transport.DefaultReadTimeout}),
		zerolog.Nop(),
		metrics,
	)
	return NewHttpClient(cache, opts, zerolog.Nop(), metrics), cache, metrics
}
