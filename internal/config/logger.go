package config

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger from the log_level and
// log_format settings. "auto" picks the console writer on a terminal and
// JSON otherwise.
func SetupLogger(cfg *Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	out, err := logWriter(cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

func logWriter(format string, f *os.File) (io.Writer, error) {
	switch format {
	case "json":
		return f, nil
	case "console":
		return zerolog.ConsoleWriter{Out: colorable.NewColorable(f)}, nil
	case "auto", "":
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return zerolog.ConsoleWriter{Out: colorable.NewColorable(f)}, nil
		}
		return f, nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be auto, console or json", format)
	}
}
