package client

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/errors"
	"github.com/AgentX1994/go-wget/internal/observability"
	"github.com/AgentX1994/go-wget/protocol"
)

// DefaultUserAgent is sent when Options.UserAgent is empty
const DefaultUserAgent = "Wget/1.21.3"

// Options tunes the fetch loop
type Options struct {
	UserAgent string
	// MaxRedirects bounds the hops of one Get; 0 means unlimited
	MaxRedirects int
}

// fetchState is the position of one Get in its redirect loop
type fetchState int

const (
	stateParsing fetchState = iota
	stateConnecting
	stateSending
	stateAwaitingResponse
	stateRedirecting
	stateDone
	stateFailed
)

func (s fetchState) String() string {
	switch s {
	case stateParsing:
		return "parsing"
	case stateConnecting:
		return "connecting"
	case stateSending:
		return "sending"
	case stateAwaitingResponse:
		return "awaiting_response"
	case stateRedirecting:
		return "redirecting"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("fetchState(%d)", int(s))
	}
}

// Result is the successful outcome of a Get
type Result struct {
	// URL is where the body was finally served from
	URL       *protocol.ParsedUrl
	Response  *protocol.HttpResponse
	Redirects int
}

// Filename is the name the body is saved under when no output file is given.
func (r *Result) Filename() string {
	return r.URL.DefaultFilename
}

// StatusError reports a response that ended a Get without success: a
// 1xx, 4xx or 5xx status, a redirect without Location, or one redirect
// too many. Response holds the full response for diagnostics.
type StatusError struct {
	URL      string
	Response *protocol.HttpResponse
	Reason   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (%d %s)", e.URL, e.Reason, e.Response.StatusCode, e.Response.StatusMessage)
}

// FetchError ties a failure to the URL that was requested
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HttpClient follows redirects over connections kept in a ConnectionCache.
type HttpClient struct {
	cache   *ConnectionCache
	opts    Options
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewHttpClient creates a client that owns no connections of its own;
// closing the cache is left to the caller.
func NewHttpClient(cache *ConnectionCache, opts Options, log zerolog.Logger, metrics *observability.Metrics) *HttpClient {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if metrics == nil {
		metrics = cache.metrics
	}
	return &HttpClient{
		cache:   cache,
		opts:    opts,
		log:     log,
		metrics: metrics,
	}
}

// Get fetches rawURL, following redirects until a 2xx response or a
// terminal failure.
func (c *HttpClient) Get(rawURL string) (*Result, error) {
	current := rawURL
	redirects := 0

	for {
		c.log.Trace().Str("url", current).Stringer("state", stateParsing).Msg("fetch")

		url, err := protocol.ParseUrl(current)
		if err != nil {
			return nil, c.fail(observability.StageParse, current, err)
		}
		c.log.Info().Str("url", url.String()).Str("filename", url.DefaultFilename).Msg("parsed url")

		if url.Protocol != protocol.SchemeHttp {
			return nil, c.fail(observability.StageScheme, current, errors.NewUnsupportedError(
				fmt.Sprintf("protocol %s is not implemented", url.Protocol),
			))
		}

		resp, stage, err := c.roundTrip(url)
		if err != nil {
			return nil, c.fail(stage, current, err)
		}

		family := resp.Family()
		c.metrics.RequestsTotal.WithLabelValues(family.String()).Inc()
		c.metrics.ResponseBodyBytesTotal.Add(float64(len(resp.Body)))

		switch family {
		case protocol.Successful:
			c.log.Trace().Str("url", current).Stringer("state", stateDone).Msg("fetch")
			return &Result{URL: url, Response: resp, Redirects: redirects}, nil

		case protocol.Redirection:
			location, ok := resp.Headers.Get("Location")
			if !ok || location == "" {
				c.log.Warn().Int("status", resp.StatusCode).Msgf("Got %d without a Location!", resp.StatusCode)
				return nil, c.fail(observability.StageRedirect, current, &StatusError{
					URL:      current,
					Response: resp,
					Reason:   "redirect without Location",
				})
			}
			if c.opts.MaxRedirects > 0 && redirects >= c.opts.MaxRedirects {
				return nil, c.fail(observability.StageRedirect, current, &StatusError{
					URL:      current,
					Response: resp,
					Reason:   fmt.Sprintf("%d redirections exceeded", c.opts.MaxRedirects),
				})
			}

			redirects++
			c.metrics.RedirectsTotal.Inc()
			c.log.Debug().Int("status", resp.StatusCode).Str("location", location).
				Msgf("Got %d with Location %q", resp.StatusCode, location)
			current = resolveLocation(url, location)
			c.log.Trace().Str("url", current).Stringer("state", stateRedirecting).Msg("fetch")

		default:
			return nil, c.fail(observability.StageStatus, current, &StatusError{
				URL:      current,
				Response: resp,
				Reason:   family.String() + " response",
			})
		}
	}
}

// roundTrip sends one GET for url. A failure on a reused connection that
// the peer has already closed is retried once on a fresh connection.
func (c *HttpClient) roundTrip(url *protocol.ParsedUrl) (*protocol.HttpResponse, string, error) {
	for attempt := 0; ; attempt++ {
		c.log.Trace().Str("url", url.String()).Stringer("state", stateConnecting).Msg("fetch")
		conn, reused, err := c.cache.GetConnection(url.Host, url.Port)
		if err != nil {
			return nil, observability.StageConnect, err
		}

		c.log.Trace().Str("url", url.String()).Stringer("state", stateSending).Msg("fetch")
		resp, err := conn.SendRequest(url.Path, c.opts.UserAgent)
		if err != nil {
			c.cache.Drop(conn)
			if reused && attempt == 0 && isStaleConnection(err) {
				c.log.Debug().Err(err).Str("host", url.Host).Msg("cached connection went stale, reconnecting")
				continue
			}
			return nil, observability.StageRequest, err
		}
		c.log.Trace().Str("url", url.String()).Stringer("state", stateAwaitingResponse).Int("status", resp.StatusCode).Msg("fetch")

		if value, ok := resp.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(value), "close") {
			c.log.Debug().Str("host", url.Host).Msg("server closed connection, dropping it")
			c.cache.Drop(conn)
		}
		return resp, "", nil
	}
}

// isStaleConnection matches the errors a kept-alive socket produces when
// the server closed it between requests.
func isStaleConnection(err error) bool {
	return errors.IsTransport(err, errors.TransportErrorConnectionClosed) ||
		errors.IsTransport(err, errors.TransportErrorShortRead)
}

func (c *HttpClient) fail(stage, url string, err error) error {
	c.metrics.FetchFailuresTotal.WithLabelValues(stage).Inc()
	c.log.Trace().Str("url", url).Stringer("state", stateFailed).Str("stage", stage).Msg("fetch")
	return &FetchError{URL: url, Err: err}
}

// resolveLocation turns a Location header into the next URL to fetch.
// Absolute URLs are taken as is; everything else is resolved against current.
func resolveLocation(current *protocol.ParsedUrl, location string) string {
	if hasScheme(location) {
		return location
	}
	if strings.HasPrefix(location, "//") {
		return current.Protocol.String() + ":" + location
	}

	next := *current
	if strings.HasPrefix(location, "/") {
		next.Path = location
	} else {
		dir := current.Path
		if q := strings.IndexAny(dir, "?#"); q >= 0 {
			dir = dir[:q]
		}
		next.Path = dir[:strings.LastIndexByte(dir, '/')+1] + location
	}
	return next.String()
}

// hasScheme reports whether location opens with "scheme://", ignoring any
// "://" that only appears after the path, query or fragment starts.
func hasScheme(location string) bool {
	end := strings.IndexAny(location, "/?#")
	if end < 1 || location[end-1] != ':' {
		return false
	}
	return strings.HasPrefix(location[end:], "//")
}

// Sink receives every successful Result of GetAll
type Sink func(*Result) error

// GetAll fetches every URL in order. A failed URL does not stop the
// ones after it; the returned error joins one *FetchError per failure.
func (c *HttpClient) GetAll(urls []string, sink Sink) error {
	var errs []error
	for _, rawURL := range urls {
		res, err := c.Get(rawURL)
		if err != nil {
			c.log.Error().Err(err).Str("url", rawURL).Msg("fetch failed")
			errs = append(errs, err)
			continue
		}
		if sink == nil {
			continue
		}
		if err := sink(res); err != nil {
			c.log.Error().Err(err).Str("url", rawURL).Msg("could not write data")
			errs = append(errs, &FetchError{URL: rawURL, Err: err})
		}
	}
	return stderrors.Join(errs...)
}
