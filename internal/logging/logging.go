// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/config"
)

const (
	DefaultLevel  = "warn"
	DefaultFormat = "text"
)

// Options selects the logger level, format and output.
type Options struct {
	Level  string
	Format string
	Out    io.Writer
}

// FromConfig fills unset options from the [log] config section and defaults.
func FromConfig(cfg config.LogConfig, out io.Writer) Options {
	opts := Options{Level: DefaultLevel, Format: DefaultFormat, Out: out}
	if cfg.Level != nil {
		opts.Level = *cfg.Level
	}
	if cfg.Format != nil {
		opts.Format = *cfg.Format
	}
	return opts
}

// NewLogger builds a configured logrus logger.
func NewLogger(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (use text or json)", opts.Format)
	}
	if opts.Out != nil {
		logger.SetOutput(opts.Out)
	}
	return logger, nil
}
