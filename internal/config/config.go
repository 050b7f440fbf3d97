package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

const (
	DefaultUserAgent    = "Wget/1.21.3"
	DefaultReadTimeout  = 30 * time.Second
	DefaultMaxRedirects = 20
	DefaultTransport    = "tcp"
)

// Config is built once at startup and only read afterwards.
type Config struct {
	// Debug is the number of -d flags given
	Debug int
	// OutputFile receives every successful body; "-" means stdout.
	// Empty means each body is saved under its URL's default filename.
	OutputFile string
	// DirectoryPrefix is where per-URL files are saved
	DirectoryPrefix string
	// Transport is tcp, iouring or uring
	Transport   string
	UnixSocket  string
	ReadTimeout time.Duration
	// MaxRedirects bounds the hops of one fetch; 0 means unlimited
	MaxRedirects int
	UserAgent    string
	// MetricsFile, if set, receives a Prometheus textfile dump after the run
	MetricsFile string
}

// FromEnv returns the defaults, overridden by any WGET_* environment variables.
func FromEnv() Config {
	cfg := Config{
		Debug:           getEnvInt("WGET_DEBUG", 0),
		OutputFile:      getEnv("WGET_OUTPUT", ""),
		DirectoryPrefix: getEnv("WGET_DIRECTORY_PREFIX", "."),
		Transport:       getEnv("WGET_TRANSPORT", DefaultTransport),
		UnixSocket:      getEnv("WGET_UNIX_SOCKET", ""),
		ReadTimeout:     getEnvDuration("WGET_READ_TIMEOUT", DefaultReadTimeout),
		MaxRedirects:    getEnvInt("WGET_MAX_REDIRECT", DefaultMaxRedirects),
		UserAgent:       getEnv("WGET_USER_AGENT", DefaultUserAgent),
		MetricsFile:     getEnv("WGET_METRICS_FILE", ""),
	}
	return cfg
}

// Parse applies command line flags on top of base and returns the URLs.
// Flags and URLs may be interleaved.
func Parse(args []string, base Config) (Config, []string, error) {
	cfg := base
	fs := newFlagSet(&cfg)
	fs.SetOutput(io.Discard)

	var urls []string
	for {
		if err := fs.Parse(args); err != nil {
			return cfg, nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		urls = append(urls, rest[0])
		args = rest[1:]
	}

	if err := cfg.validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, urls, nil
}

// Usage writes the flag summary to w.
func Usage(w io.Writer) {
	var cfg Config
	fs := newFlagSet(&cfg)
	fs.SetOutput(w)
	fmt.Fprintf(w, "Usage: wget [options] URL...\n")
	fs.PrintDefaults()
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("wget", flag.ContinueOnError)
	fs.Var((*counter)(&cfg.Debug), "d", "increase debug output (repeatable)")
	fs.StringVar(&cfg.OutputFile, "O", cfg.OutputFile, "write all documents to `file` (\"-\" for stdout)")
	fs.StringVar(&cfg.DirectoryPrefix, "P", cfg.DirectoryPrefix, "save files to `prefix`/...")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "socket backend: tcp, iouring or uring")
	fs.StringVar(&cfg.UnixSocket, "unix-socket", cfg.UnixSocket, "connect through the unix socket at `path`")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "timeout for every socket read")
	fs.IntVar(&cfg.MaxRedirects, "max-redirect", cfg.MaxRedirects, "maximum redirections per URL (0 = unlimited)")
	fs.StringVar(&cfg.UserAgent, "U", cfg.UserAgent, "identify as `agent`")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to `file` on exit")
	return fs
}

func (c Config) validate() error {
	switch c.Transport {
	case "tcp", "iouring", "uring":
	default:
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", c.Transport))
	}
	if c.MaxRedirects < 0 {
		return errors.NewInvalidArgumentError("max-redirect must not be negative")
	}
	if c.ReadTimeout < 0 {
		return errors.NewInvalidArgumentError("read-timeout must not be negative")
	}
	return nil
}

// counter is a flag that counts how often it was given.
type counter int

func (c *counter) String() string {
	if c == nil {
		return "0"
	}
	return strconv.Itoa(int(*c))
}

func (c *counter) Set(string) error {
	*c++
	return nil
}

func (c *counter) IsBoolFlag() bool { return true }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
