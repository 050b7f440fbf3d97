package client

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/protocol"
	"github.com/AgentX1994/go-wget/transport"
)

// Connection is one live transport to a (host, port) pair. Requests on a
// connection are serialized by its mutex.
type Connection struct {
	Host string
	Port uint16

	mu    sync.Mutex
	proto *protocol.Http1Protocol
	log   zerolog.Logger
}

func newConnection(host string, port uint16, t transport.Transport, log zerolog.Logger) *Connection {
	return &Connection{
		Host:  host,
		Port:  port,
		proto: protocol.NewHttp1Protocol(t, log),
		log:   log,
	}
}

func (c *Connection) connect() error {
	c.log.Debug().Str("host", c.Host).Uint16("port", c.Port).Msgf("Connecting to %s port %d", c.Host, c.Port)
	return c.proto.Connect(c.Host, c.Port)
}

// SendRequest issues a GET for path and reads the whole response.
func (c *Connection) SendRequest(path, userAgent string) (*protocol.HttpResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := protocol.NewGetRequest(c.Host, path, userAgent)
	c.log.Info().Msgf("------ request start ------\n%s------ request end -----", req)

	resp, err := c.proto.PerformRequest(req)
	if err != nil {
		return nil, err
	}

	c.log.Info().Msgf("------ response start ------\n%s\n------ response end -----", resp)
	return resp, nil
}

// Close releases the transport.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proto.Disconnect()
}
