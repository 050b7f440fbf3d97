package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/AgentX1994/go-wget/client"
	"github.com/AgentX1994/go-wget/internal/config"
	"github.com/AgentX1994/go-wget/internal/observability"
	"github.com/AgentX1994/go-wget/transport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one wget invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, urls, err := config.Parse(args, config.FromEnv())
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			config.Usage(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "wget: %v\n", err)
		config.Usage(stderr)
		return 2
	}
	if len(urls) == 0 {
		fmt.Fprintln(stderr, "wget: missing URL")
		config.Usage(stderr)
		return 1
	}

	log := observability.NewLogger(stderr, cfg.Debug)
	log.Info().
		Int("debug", cfg.Debug).
		Str("output", cfg.OutputFile).
		Str("transport", cfg.Transport).
		Dur("read_timeout", cfg.ReadTimeout).
		Strs("urls", urls).
		Msg("starting")

	sink, closeSink, err := newSink(cfg, stdout, log)
	if err != nil {
		fmt.Fprintf(stderr, "wget: %v\n", err)
		return 1
	}
	defer closeSink()

	metrics := observability.NewMetrics()
	cache := client.NewConnectionCache(
		client.NewTransportFactory(transport.Options{
			Kind:        transport.Kind(cfg.Transport),
			UnixSocket:  cfg.UnixSocket,
			ReadTimeout: cfg.ReadTimeout,
		}),
		log,
		metrics,
	)
	defer cache.Close()

	c := client.NewHttpClient(cache, client.Options{
		UserAgent:    cfg.UserAgent,
		MaxRedirects: cfg.MaxRedirects,
	}, log, metrics)

	fetchErr := c.GetAll(urls, sink)
	reportFailures(stderr, fetchErr)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("could not write metrics")
		}
	}

	if fetchErr != nil {
		return 1
	}
	return 0
}

// newSink picks where successful bodies go: one shared file, stdout, or a
// file per URL under the directory prefix.
func newSink(cfg config.Config, stdout io.Writer, log zerolog.Logger) (client.Sink, func(), error) {
	switch cfg.OutputFile {
	case "":
		return func(res *client.Result) error {
			path := filepath.Join(cfg.DirectoryPrefix, res.Filename())
			log.Info().Str("path", path).Int("bytes", len(res.Response.Body)).Msg("saving")
			return os.WriteFile(path, res.Response.Body, 0o644)
		}, func() {}, nil

	case "-":
		log.Info().Msg("Writing to stdout")
		return writerSink(stdout), func() {}, nil

	default:
		log.Info().Str("path", cfg.OutputFile).Msgf("Writing to %s", cfg.OutputFile)
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return nil, nil, err
		}
		return writerSink(f), func() { f.Close() }, nil
	}
}

func writerSink(w io.Writer) client.Sink {
	return func(res *client.Result) error {
		_, err := w.Write(res.Response.Body)
		return err
	}
}

// reportFailures prints one line per failed URL, plus the raw response
// when a status ended the fetch.
func reportFailures(w io.Writer, err error) {
	if err == nil {
		return
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	for _, e := range errs {
		fmt.Fprintf(w, "wget: %v\n", e)

		var statusErr *client.StatusError
		if stderrors.As(e, &statusErr) {
			fmt.Fprintf(w, "%s\n", statusErr.Response.Serialize())
		}
	}
}
