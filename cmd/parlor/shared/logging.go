package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger builds the process logger. format is "console" for pretty
// output or "json" for structured output; debug forces the debug level.
func SetupLogger(level, format string, debug bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if debug {
		lvl = zerolog.DebugLevel
	}

	var out io.Writer
	switch format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	case "json":
		zerolog.TimeFieldFormat = time.RFC3339Nano
		out = os.Stderr
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q: want console or json", format)
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
