package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AgentX1994/go-wget/errors"
)

// DefaultFilename is used when a URL path ends in "/" or has no segment
const DefaultFilename = "index.html"

// Scheme is a URL protocol the parser recognizes
type Scheme int

const (
	SchemeHttp Scheme = iota
	SchemeHttps
	SchemeFtp
)

func (s Scheme) String() string {
	switch s {
	case SchemeHttp:
		return "http"
	case SchemeHttps:
		return "https"
	case SchemeFtp:
		return "ftp"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// DefaultPort returns the well-known port of the scheme.
func (s Scheme) DefaultPort() uint16 {
	switch s {
	case SchemeHttps:
		return 443
	case SchemeFtp:
		return 21
	default:
		return 80
	}
}

func parseScheme(prefix string) (Scheme, bool) {
	switch strings.ToLower(prefix) {
	case "http:":
		return SchemeHttp, true
	case "https:":
		return SchemeHttps, true
	case "ftp:":
		return SchemeFtp, true
	default:
		return 0, false
	}
}

// ParsedUrl is a URL split into the parts needed to issue a request
type ParsedUrl struct {
	Protocol        Scheme
	Host            string
	Port            uint16
	Path            string
	DefaultFilename string
}

// String rebuilds an absolute URL.
func (u *ParsedUrl) String() string {
	return fmt.Sprintf("%s://%s:%d%s", u.Protocol, u.Host, u.Port, u.Path)
}

// ParseUrl decomposes raw into protocol, host, port and path.
// A missing scheme means http. IPv6 literals are not supported.
func ParseUrl(raw string) (*ParsedUrl, error) {
	rest := raw
	scheme := SchemeHttp

	// a scheme is a ':' that comes before the first '/'
	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		slash := strings.IndexByte(rest, '/')
		if slash < 0 || colon < slash {
			if s, ok := parseScheme(rest[:colon+1]); ok {
				scheme = s
				rest = rest[colon+1:]
			} else if strings.HasPrefix(rest[colon+1:], "//") {
				return nil, errors.NewUrlError(
					errors.UrlErrorUnknownProtocol,
					fmt.Sprintf("Unknown protocol: %s", rest[:colon+1]),
				)
			}
		}
	}

	rest = strings.TrimPrefix(rest, "//")

	authority, path := rest, "/"
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		authority, path = rest[:slash], rest[slash:]
	}

	host, port := authority, scheme.DefaultPort()
	if colon := strings.LastIndexByte(authority, ':'); colon >= 0 {
		host = authority[:colon]
		portStr := authority[colon+1:]
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, errors.NewUrlError(
				errors.UrlErrorInvalidPort,
				fmt.Sprintf("Invalid port %q", portStr),
			)
		}
		port = uint16(p)
	}

	if host == "" {
		return nil, errors.NewUrlError(
			errors.UrlErrorEmptyHost,
			fmt.Sprintf("no host in %q", raw),
		)
	}

	return &ParsedUrl{
		Protocol:        scheme,
		Host:            host,
		Port:            port,
		Path:            path,
		DefaultFilename: filenameOf(path),
	}, nil
}

func filenameOf(path string) string {
	segment := path[strings.LastIndexByte(path, '/')+1:]
	if segment == "" {
		return DefaultFilename
	}
	return segment
}
