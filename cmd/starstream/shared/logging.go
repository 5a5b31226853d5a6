package shared

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output for the process
// itself (startup, fatal errors).
func SetupLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ServiceLogger builds the logger handed to the long-running services. Extra
// writers (the admin panel's log buffer) see the same lines as stderr.
func ServiceLogger(level string, extra ...io.Writer) *charmlog.Logger {
	writers := append([]io.Writer{os.Stderr}, extra...)
	logger := charmlog.NewWithOptions(io.MultiWriter(writers...), charmlog.Options{
		ReportTimestamp: true,
	})
	switch level {
	case "debug":
		logger.SetLevel(charmlog.DebugLevel)
	case "warn":
		logger.SetLevel(charmlog.WarnLevel)
	case "error":
		logger.SetLevel(charmlog.ErrorLevel)
	default:
		logger.SetLevel(charmlog.InfoLevel)
	}
	return logger
}
