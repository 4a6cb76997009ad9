package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/rs/zerolog"
)

// Builder assembles a zerolog logger from a LogConfig.
type Builder struct {
	cfg     config.LogConfig
	factory *WriterFactory
}

// NewBuilder creates a logger builder seeded with defaults.
func NewBuilder() *Builder {
	return &Builder{
		cfg:     config.NewDefaultLogConfig(),
		factory: NewWriterFactory(),
	}
}

// WithConfig sets the logger configuration.
func (b *Builder) WithConfig(cfg config.LogConfig) *Builder {
	b.cfg = cfg
	return b
}

// Build creates the logger instance.
func (b *Builder) Build() (zerolog.Logger, error) {
	level, err := parseLevel(b.cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}

	var writers []io.Writer
	writers = append(writers, b.factory.CreateConsoleWriter(b.cfg.LogFormat, os.Stderr))
	if b.cfg.LogFile != "" {
		writers = append(writers, b.factory.CreateFileWriter(b.cfg))
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	log := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	return log, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
