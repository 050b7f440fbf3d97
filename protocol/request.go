package protocol

import (
	"bytes"
	"fmt"
)

// HttpRequest represents an HTTP request
type HttpRequest struct {
	Method  HttpMethod
	Path    string
	Version HttpVersion
	Headers *Headers
}

// NewRequest creates a request with an empty header set.
func NewRequest(method HttpMethod, path string, version HttpVersion) *HttpRequest {
	return &HttpRequest{
		Method:  method,
		Path:    path,
		Version: version,
		Headers: NewHeaders(),
	}
}

// NewGetRequest creates an HTTP/1.1 GET for path with the headers every
// fetch sends. Accept-Encoding is pinned to identity since bodies are
// never decompressed.
func NewGetRequest(host, path, userAgent string) *HttpRequest {
	req := NewRequest(MethodGet, path, Version1_1)
	req.Headers.Add("Host", host)
	req.Headers.Add("User-Agent", userAgent)
	req.Headers.Add("Accept", "*/*")
	req.Headers.Add("Accept-Encoding", "identity")
	req.Headers.Add("Connection", "Keep-Alive")
	return req
}

// Serialize formats the request line, headers and blank line for the wire
func (r *HttpRequest) Serialize() []byte {
	var buf bytes.Buffer
	r.writeTo(&buf)
	return buf.Bytes()
}

func (r *HttpRequest) String() string {
	return string(r.Serialize())
}

func (r *HttpRequest) writeTo(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%s %s %s\r\n", r.Method, r.Path, r.Version)
	r.Headers.Each(func(key, value string) {
		fmt.Fprintf(buf, "%s: %s\r\n", key, value)
	})
	buf.WriteString("\r\n")
}
