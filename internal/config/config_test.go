package config

import (
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/AgentX1994/go-wget/errors"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"WGET_DEBUG", "WGET_OUTPUT", "WGET_DIRECTORY_PREFIX", "WGET_TRANSPORT", "WGET_UNIX_SOCKET",
		"WGET_READ_TIMEOUT", "WGET_MAX_REDIRECT", "WGET_USER_AGENT", "WGET_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.Debug != 0 {
		t.Errorf("Expected debug 0, got %d", cfg.Debug)
	}
	if cfg.Transport != DefaultTransport {
		t.Errorf("Expected transport %q, got %q", DefaultTransport, cfg.Transport)
	}
	if cfg.DirectoryPrefix != "." {
		t.Errorf("Expected directory prefix %q, got %q", ".", cfg.DirectoryPrefix)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("Expected read timeout 30s, got %v", cfg.ReadTimeout)
	}
	if cfg.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("Expected max redirects %d, got %d", DefaultMaxRedirects, cfg.MaxRedirects)
	}
	if cfg.UserAgent != "Wget/1.21.3" {
		t.Errorf("Expected user agent %q, got %q", "Wget/1.21.3", cfg.UserAgent)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("WGET_DEBUG", "2")
	t.Setenv("WGET_TRANSPORT", "uring")
	t.Setenv("WGET_READ_TIMEOUT", "5s")
	t.Setenv("WGET_MAX_REDIRECT", "0")
	t.Setenv("WGET_USER_AGENT", "tester/1.0")

	cfg := FromEnv()

	if cfg.Debug != 2 {
		t.Errorf("Expected debug 2, got %d", cfg.Debug)
	}
	if cfg.Transport != "uring" {
		t.Errorf("Expected transport uring, got %q", cfg.Transport)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read timeout 5s, got %v", cfg.ReadTimeout)
	}
	if cfg.MaxRedirects != 0 {
		t.Errorf("Expected unlimited redirects, got %d", cfg.MaxRedirects)
	}
	if cfg.UserAgent != "tester/1.0" {
		t.Errorf("Expected user agent tester/1.0, got %q", cfg.UserAgent)
	}
}

func TestFromEnv_IgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("WGET_DEBUG", "lots")
	t.Setenv("WGET_READ_TIMEOUT", "forever")

	cfg := FromEnv()

	if cfg.Debug != 0 {
		t.Errorf("Expected debug 0, got %d", cfg.Debug)
	}
	if cfg.ReadTimeout != DefaultReadTimeout {
		t.Errorf("Expected default read timeout, got %v", cfg.ReadTimeout)
	}
}

func baseConfig() Config {
	return Config{
		Transport:    DefaultTransport,
		ReadTimeout:  DefaultReadTimeout,
		MaxRedirects: DefaultMaxRedirects,
		UserAgent:    DefaultUserAgent,
	}
}

func TestParse_FlagsAndUrls(t *testing.T) {
	args := []string{"-d", "-d", "-d", "-O", "-", "http://a/", "-max-redirect", "3", "b.example.com"}

	cfg, urls, err := Parse(args, baseConfig())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Debug != 3 {
		t.Errorf("Expected debug 3, got %d", cfg.Debug)
	}
	if cfg.OutputFile != "-" {
		t.Errorf("Expected output %q, got %q", "-", cfg.OutputFile)
	}
	if cfg.MaxRedirects != 3 {
		t.Errorf("Expected max redirects 3, got %d", cfg.MaxRedirects)
	}
	if strings.Join(urls, " ") != "http://a/ b.example.com" {
		t.Errorf("Expected urls [http://a/ b.example.com], got %v", urls)
	}
}

func TestParse_KeepsBaseValues(t *testing.T) {
	base := baseConfig()
	base.Debug = 1
	base.UnixSocket = "/run/app.sock"

	cfg, urls, err := Parse([]string{"-d", "localhost"}, base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Debug != 2 {
		t.Errorf("Expected env debug plus one flag to give 2, got %d", cfg.Debug)
	}
	if cfg.UnixSocket != "/run/app.sock" {
		t.Errorf("Expected unix socket to survive, got %q", cfg.UnixSocket)
	}
	if len(urls) != 1 || urls[0] != "localhost" {
		t.Errorf("Expected [localhost], got %v", urls)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown transport", []string{"-transport", "carrier-pigeon", "x"}},
		{"negative redirects", []string{"-max-redirect", "-1", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.args, baseConfig())
			if errors.TypeOf(err) != errors.ErrorInvalidArgument {
				t.Errorf("Expected invalid argument error, got %v", err)
			}
		})
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	_, _, err := Parse([]string{"-no-such-flag"}, baseConfig())
	if err == nil {
		t.Fatal("Expected error for unknown flag")
	}
}

func TestParse_Help(t *testing.T) {
	_, _, err := Parse([]string{"-h"}, baseConfig())
	if err != flag.ErrHelp {
		t.Errorf("Expected flag.ErrHelp, got %v", err)
	}
}

func TestUsage(t *testing.T) {
	var sb strings.Builder
	Usage(&sb)

	for _, name := range []string{"-O", "-transport", "-max-redirect", "-unix-socket"} {
		if !strings.Contains(sb.String(), name) {
			t.Errorf("Expected usage to mention %s, got:\n%s", name, sb.String())
		}
	}
}
