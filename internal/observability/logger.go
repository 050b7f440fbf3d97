package observability

import (
	"io"

	"github.com/rs/zerolog"
)

// LevelForVerbosity maps the number of -d flags to a log level.
func LevelForVerbosity(debug int) zerolog.Level {
	switch {
	case debug <= 0:
		return zerolog.WarnLevel
	case debug == 1:
		return zerolog.InfoLevel
	case debug == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// NewLogger writes human-readable lines to w. Request and response dumps
// are logged at info, so they appear from one -d upward.
func NewLogger(w io.Writer, debug int) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).
		Level(LevelForVerbosity(debug)).
		With().
		Timestamp().
		Str("version", Version).
		Logger()
}
