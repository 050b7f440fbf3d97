package client

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/internal/observability"
	"github.com/AgentX1994/go-wget/transport"
)

// TransportFactory creates an unconnected transport for a new connection.
type TransportFactory func() (transport.Transport, error)

// NewTransportFactory returns a factory building transports from opts.
func NewTransportFactory(opts transport.Options) TransportFactory {
	return func() (transport.Transport, error) {
		return transport.New(opts)
	}
}

type connKey struct {
	host string
	port uint16
}

func (k connKey) String() string {
	return fmt.Sprintf("%s:%d", k.host, k.port)
}

// cacheEntry is published before connecting so that concurrent lookups
// for the same key wait on ready instead of dialing a second time.
type cacheEntry struct {
	ready chan struct{}
	conn  *Connection
	err   error
}

// ConnectionCache keeps one connection per (host, port) for the lifetime
// of a run. Cached connections are not checked for liveness before reuse.
type ConnectionCache struct {
	mu      sync.Mutex
	entries map[connKey]*cacheEntry

	newTransport TransportFactory
	log          zerolog.Logger
	metrics      *observability.Metrics
}

// NewConnectionCache creates an empty cache
func NewConnectionCache(factory TransportFactory, log zerolog.Logger, metrics *observability.Metrics) *ConnectionCache {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &ConnectionCache{
		entries:      make(map[connKey]*cacheEntry),
		newTransport: factory,
		log:          log,
		metrics:      metrics,
	}
}

// GetConnection returns the cached connection for host and port, or
// connects a new one. reused reports a cache hit.
func (c *ConnectionCache) GetConnection(host string, port uint16) (conn *Connection, reused bool, err error) {
	key := connKey{host: host, port: port}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-entry.ready
		if entry.err != nil {
			return nil, false, entry.err
		}
		c.log.Debug().Str("key", key.String()).Msgf("Reusing old connection for %s port %d", host, port)
		c.metrics.ConnectionsReusedTotal.Inc()
		return entry.conn, true, nil
	}

	entry := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = entry
	c.mu.Unlock()

	conn, err = c.connect(host, port)

	c.mu.Lock()
	entry.conn, entry.err = conn, err
	if err != nil && c.entries[key] == entry {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	close(entry.ready)

	if err != nil {
		return nil, false, err
	}
	c.metrics.ConnectionsOpenedTotal.Inc()
	return conn, false, nil
}

func (c *ConnectionCache) connect(host string, port uint16) (*Connection, error) {
	t, err := c.newTransport()
	if err != nil {
		return nil, err
	}

	conn := newConnection(host, port, t, c.log)
	if err := conn.connect(); err != nil {
		t.Close()
		return nil, err
	}
	return conn, nil
}

// Drop closes conn and forgets it, so the next lookup for its key
// reconnects. Dropping a connection that was already replaced only
// closes it.
func (c *ConnectionCache) Drop(conn *Connection) {
	if conn == nil {
		return
	}
	key := connKey{host: conn.Host, port: conn.Port}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && entry.conn == conn {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if err := conn.Close(); err != nil {
		c.log.Debug().Err(err).Str("key", key.String()).Msg("closing dropped connection")
	}
}

// Len returns the number of cached connections, including ones still connecting.
func (c *ConnectionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close closes every cached connection and empties the cache.
func (c *ConnectionCache) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[connKey]*cacheEntry)
	c.mu.Unlock()

	var firstErr error
	for _, entry := range entries {
		<-entry.ready
		if entry.conn == nil {
			continue
		}
		if err := entry.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
