package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/config"
)

// NewDefaultLogger returns the logger used until the config is read.
func NewDefaultLogger() zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()

	logger.Info().Msg("initialized default logger")
	return logger
}

func MustInitApplicationLogger(logger zerolog.Logger, env string) zerolog.Logger {
	w, err := applicationLogWriter(env)
	if err != nil {
		logger.Error().
			Str("env", env).
			Msg("unknown env")
		panic(err)
	}

	logger = logger.Output(w)
	logger.Info().Msg("initialized application logger")
	return logger
}

// applicationLogWriter sets the global level for env and returns the writer
// to log to.
func applicationLogWriter(env string) (io.Writer, error) {
	w := io.Writer(os.Stdout)
	switch env {
	case config.EnvDev:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.EnvProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case config.EnvLocal:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownEnv, env)
	}
	return w, nil
}
