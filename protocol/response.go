package protocol

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/errors"
)

// HttpResponse is a fully received response
type HttpResponse struct {
	Version       HttpVersion
	StatusCode    int
	StatusMessage string
	Headers       *Headers
	Body          []byte
}

// Family returns the status family of the response code.
func (r *HttpResponse) Family() StatusFamily {
	family, _ := FamilyOf(r.StatusCode)
	return family
}

// Serialize renders the response as it would appear on the wire
func (r *HttpResponse) Serialize() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %s\r\n", r.Version, r.StatusCode, r.StatusMessage)
	r.Headers.Each(func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	})
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}

func (r *HttpResponse) String() string {
	return string(r.Serialize())
}

// ReadResponse reads one response from br: status line, headers, then a
// body framed by Content-Length or chunked transfer encoding. Without
// either the body is empty.
func ReadResponse(br *bufio.Reader, log zerolog.Logger) (*HttpResponse, error) {
	resp, err := readStatusLine(br, log)
	if err != nil {
		return nil, err
	}

	if err := readHeaders(br, resp.Headers, log); err != nil {
		return nil, err
	}

	if err := readBody(br, resp, log); err != nil {
		return nil, err
	}

	return resp, nil
}

func readStatusLine(br *bufio.Reader, log zerolog.Logger) (*HttpResponse, error) {
	line, err := readHttpLine(br)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("line", line).Msg("read status line")

	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("no status code in %q", line),
		)
	}

	version, ok := ParseVersion(parts[0])
	if !ok {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorUnknownVersion,
			fmt.Sprintf("unknown version %q", parts[0]),
		)
	}

	code, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusCode,
			fmt.Sprintf("status code not a number: %q", parts[1]),
		)
	}
	if _, ok := FamilyOf(int(code)); !ok {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusCode,
			fmt.Sprintf("status code %d outside 100-599", code),
		)
	}

	return &HttpResponse{
		Version:       version,
		StatusCode:    int(code),
		StatusMessage: strings.Join(parts[2:], " "),
		Headers:       NewHeaders(),
	}, nil
}

func readHeaders(br *bufio.Reader, headers *Headers, log zerolog.Logger) error {
	for {
		line, err := readHttpLine(br)
		if err != nil {
			return err
		}
		if line == "" {
			log.Debug().Int("count", headers.Len()).Msg("finished reading headers")
			return nil
		}
		log.Debug().Str("line", line).Msg("read header line")

		sep := strings.Index(line, ": ")
		if sep <= 0 {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidHeader,
				fmt.Sprintf("no \": \" separator in %q", line),
			)
		}
		headers.Add(line[:sep], line[sep+2:])
	}
}

func readBody(br *bufio.Reader, resp *HttpResponse, log zerolog.Logger) error {
	if lengthStr, ok := resp.Headers.Get("Content-Length"); ok {
		length, err := strconv.ParseUint(strings.TrimSpace(lengthStr), 10, 63)
		if err != nil {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidContentLength,
				fmt.Sprintf("invalid content length %q", lengthStr),
			)
		}
		log.Debug().Uint64("length", length).Msg("receiving length-delimited body")
		body, err := readExactly(br, int64(length))
		if err != nil {
			return err
		}
		resp.Body = body
		return nil
	}

	if isChunked(resp.Headers) {
		body, err := readChunked(br, log)
		if err != nil {
			return err
		}
		resp.Body = body
		return nil
	}

	resp.Body = []byte{}
	return nil
}

// isChunked matches "chunked" case-insensitively, unlike a literal comparison.
func isChunked(headers *Headers) bool {
	te, ok := headers.Get("Transfer-Encoding")
	return ok && strings.EqualFold(strings.TrimSpace(te), "chunked")
}

func readChunked(br *bufio.Reader, log zerolog.Logger) ([]byte, error) {
	var body bytes.Buffer
	for {
		sizeLine, err := readHttpLine(br)
		if err != nil {
			return nil, err
		}
		size, err := strconv.ParseUint(sizeLine, 16, 63)
		if err != nil {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorInvalidChunkedEncoding,
				fmt.Sprintf("invalid chunk size %q", sizeLine),
			)
		}
		log.Debug().Str("size", "0x"+sizeLine).Msg("receiving chunk")
		if size == 0 {
			break
		}

		chunk, err := readExactly(br, int64(size))
		if err != nil {
			return nil, err
		}
		body.Write(chunk)

		var terminator [2]byte
		if _, err := io.ReadFull(br, terminator[:]); err != nil {
			return nil, readError(err, "chunk terminator")
		}
		if terminator != [2]byte{'\r', '\n'} {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorInvalidChunkedEncoding,
				fmt.Sprintf("invalid chunk terminator %q", terminator[:]),
			)
		}
	}
	log.Debug().Int("length", body.Len()).Msg("all chunks received")

	// trailers are skipped, not parsed, so the next response starts cleanly
	if err := discardTrailers(br); err != nil {
		log.Debug().Err(err).Msg("trailer section incomplete")
	}
	return body.Bytes(), nil
}

func discardTrailers(br *bufio.Reader) error {
	for {
		line, err := readHttpLine(br)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func readExactly(br *bufio.Reader, n int64) ([]byte, error) {
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, br, n)
	if err != nil {
		return nil, readError(err, fmt.Sprintf("body: got %d of %d bytes", copied, n))
	}
	return buf.Bytes(), nil
}

// readHttpLine strips at most one trailing "\n" and then at most one "\r".
func readHttpLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if line == "" && stderrors.Is(err, io.EOF) {
			return "", errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed while waiting for a line",
				err,
			)
		}
		return "", readError(err, "line")
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// readError passes transport errors through and classifies the rest.
func readError(err error, what string) error {
	var httpErr *errors.HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewTransportError(
			errors.TransportErrorShortRead,
			"short read: "+what,
			err,
		)
	}
	return errors.NewTransportError(errors.TransportErrorSocketReadFailure, what, err)
}
