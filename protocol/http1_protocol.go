package protocol

import (
	"bufio"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/errors"
	"github.com/AgentX1994/go-wget/transport"
)

const readBufferSize = 4096

// Http1Protocol implements HTTP/1.1 protocol over a transport.
//
// The buffered reader lives as long as the transport, so bytes read past
// the end of one response are still there for the next one on a
// keep-alive connection.
type Http1Protocol struct {
	transport transport.Transport
	reader    *bufio.Reader
	log       zerolog.Logger
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler
func NewHttp1Protocol(t transport.Transport, log zerolog.Logger) *Http1Protocol {
	return &Http1Protocol{
		transport: t,
		reader:    bufio.NewReaderSize(t, readBufferSize),
		log:       log,
	}
}

// Connect establishes a connection to the specified host and port
func (p *Http1Protocol) Connect(host string, port uint16) error {
	return p.transport.Connect(host, port)
}

// Disconnect closes the connection
func (p *Http1Protocol) Disconnect() error {
	return p.transport.Close()
}

// PerformRequest writes req and reads the response to it
func (p *Http1Protocol) PerformRequest(req *HttpRequest) (*HttpResponse, error) {
	if err := p.writeAll(req.Serialize()); err != nil {
		return nil, err
	}
	return ReadResponse(p.reader, p.log)
}

func (p *Http1Protocol) writeAll(buf []byte) error {
	for len(buf) > 0 {
		n, err := p.transport.Write(buf)
		if err != nil {
			return err
		}
		if n <= 0 {
			return errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"transport accepted no bytes",
				nil,
			)
		}
		buf = buf[n:]
	}
	return nil
}
