package logger

import (
	"io"
	"strings"
	"time"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterFactory creates log writers for the configured formats.
type WriterFactory struct{}

// NewWriterFactory creates a new writer factory.
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{}
}

// CreateConsoleWriter creates a writer for the given format. "json"
// passes records through untouched; "console" and "text" render with
// zerolog's console writer (text without color).
func (wf *WriterFactory) CreateConsoleWriter(format string, output io.Writer) io.Writer {
	switch strings.ToLower(format) {
	case "json":
		return output
	case "text":
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	default:
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}
}

// CreateFileWriter creates a size-rotated file writer.
func (wf *WriterFactory) CreateFileWriter(cfg config.LogConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
		Compress:   true,
	}
}
